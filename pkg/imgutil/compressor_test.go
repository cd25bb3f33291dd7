package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

// テスト用のダミー画像を作成するヘルパー
// noisy=true の場合はPNGでは縮まないノイズ画像を作るのだ
func createDummyImageData(t *testing.T, format string, size int, noisy bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	rnd := rand.New(rand.NewSource(42))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			if noisy {
				img.Set(x, y, color.RGBA{uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), 255})
				continue
			}
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}

	if err != nil {
		t.Fatalf("failed to encode dummy image: %v", err)
	}
	return buf.Bytes()
}

func TestCompressToJPEG(t *testing.T) {
	t.Run("大きなPNG画像をJPEGに圧縮できること", func(t *testing.T) {
		pngData := createDummyImageData(t, "png", 128, true)

		got, compressed, err := CompressToJPEG(pngData, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !compressed {
			t.Fatal("expected compression to be applied")
		}
		if len(got) >= len(pngData) {
			t.Errorf("output (%d) should be smaller than input (%d)", len(got), len(pngData))
		}

		// 出力がJPEGとしてデコード可能か確認
		_, format, err := image.Decode(bytes.NewReader(got))
		if err != nil {
			t.Errorf("failed to decode output image: %v", err)
		}
		if format != "jpeg" {
			t.Errorf("expected format jpeg, got %s", format)
		}
	})

	t.Run("圧縮で大きくなる場合は元データを返すこと", func(t *testing.T) {
		// 10x10 の単色PNGはJPEGヘッダより小さいのだ
		pngData := createDummyImageData(t, "png", 10, false)

		got, compressed, err := CompressToJPEG(pngData, 75)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if compressed {
			t.Error("compression should not be applied")
		}
		if !bytes.Equal(got, pngData) {
			t.Error("original data should be returned as is")
		}
	})

	t.Run("不正なデータを与えた場合にエラーを返すこと", func(t *testing.T) {
		invalidData := []byte("this is not an image")
		_, _, err := CompressToJPEG(invalidData, 75)
		if err == nil {
			t.Error("expected error for invalid data, but got nil")
		}
	})

	t.Run("Quality設定によってサイズが変化すること", func(t *testing.T) {
		input := createDummyImageData(t, "png", 128, true)

		highQuality, _, _ := CompressToJPEG(input, 100)
		lowQuality, _, _ := CompressToJPEG(input, 10)

		if len(lowQuality) >= len(highQuality) {
			t.Errorf("low quality size (%d) should be smaller than high quality size (%d)", len(lowQuality), len(highQuality))
		}
	})
}

func TestClampQuality(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{75, 75},
		{150, 100},
	}
	for _, tt := range tests {
		if got := clampQuality(tt.in); got != tt.want {
			t.Errorf("clampQuality(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
