package imgutil

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

const (
	minQuality = 1
	maxQuality = 100
)

// CompressToJPEG は画像データ（PNG, GIF, JPEG等）をJPEG形式に再エンコードします。
// 再エンコード結果が元データより大きくなる場合は元データをそのまま返し、
// 戻り値の bool で圧縮を採用したかどうかを示します。
func CompressToJPEG(data []byte, quality int) ([]byte, bool, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return nil, false, err
	}
	if buf.Len() >= len(data) {
		return data, false, nil
	}
	return buf.Bytes(), true, nil
}

func clampQuality(q int) int {
	if q < minQuality {
		return minQuality
	}
	if q > maxQuality {
		return maxQuality
	}
	return q
}
