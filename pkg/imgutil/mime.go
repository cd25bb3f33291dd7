package imgutil

import (
	"mime"
	"net/http"
	"strings"
)

// 生成APIが入力画像として受け付けるMIMEタイプ
var supportedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/heic": {},
	"image/heif": {},
	"image/gif":  {},
}

// NormalizeMIMEType はパラメータを除去し小文字化したメディアタイプを返します。
// "image/jpg" は "image/jpeg" として扱います。
func NormalizeMIMEType(declared string) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mediaType = strings.TrimSpace(declared)
	}
	mediaType = strings.ToLower(mediaType)
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}

// IsSupportedImageType は入力画像として受け付けるメディアタイプかどうかを返します。
func IsSupportedImageType(mediaType string) bool {
	_, ok := supportedImageTypes[NormalizeMIMEType(mediaType)]
	return ok
}

// ResolveMIMEType は宣言されたメディアタイプを正規化し、空の場合はデータから判定します。
func ResolveMIMEType(declared string, data []byte) string {
	if strings.TrimSpace(declared) != "" {
		return NormalizeMIMEType(declared)
	}
	return NormalizeMIMEType(http.DetectContentType(data))
}
