package domain

// MediaAsset は呼び出し元から渡される画像アセットです。
// MIMEType が空の場合はデータの内容から判定します。
type MediaAsset struct {
	Data     []byte
	MIMEType string
}

// IsEmpty はアセットにデータが含まれていないかどうかを返します。
func (a MediaAsset) IsEmpty() bool {
	return len(a.Data) == 0
}

// MediaResult は生成された静止画のデータです。
type MediaResult struct {
	Data     []byte
	MimeType string
}

// VideoResult はダウンロード済みの生成動画です。
// Path はローカルに書き出したファイル、URI はリモート側のロケーターです。
type VideoResult struct {
	Data     []byte
	MimeType string
	Path     string
	URI      string
}
