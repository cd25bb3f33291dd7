package domain

import (
	"fmt"
	"strings"
)

// Preset は UI から選択できる定型プロンプトです。
type Preset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// AspectRatio は選択可能なアスペクト比です。
type AspectRatio struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// InstructTemplates は単一画像の指示編集で使うテンプレートです。
var InstructTemplates = []Preset{
	{ID: "anime", Name: "Anime Style", Prompt: "Convert this image to a vibrant, high-quality anime style."},
	{ID: "cinematic", Name: "Cinematic Look", Prompt: "Give this image a cinematic look, with dramatic lighting and a widescreen feel."},
	{ID: "vintage", Name: "Vintage Photo", Prompt: "Make this image look like a vintage photograph from the 1970s, with faded colors and film grain."},
	{ID: "watercolor", Name: "Watercolor", Prompt: "Transform this image into a soft and flowing watercolor painting."},
	{ID: "pixel-art", Name: "Pixel Art", Prompt: "Convert this image into detailed 16-bit pixel art."},
	{ID: "neon-punk", Name: "Neon Punk", Prompt: "Add a neon-punk aesthetic to this image with glowing highlights and a dark, moody atmosphere."},
}

// MockupTemplates はモックアップの配置先です。MockupPrompt と組み合わせて使います。
var MockupTemplates = []Preset{
	{ID: "coffee-mug", Name: "Coffee Mug", Prompt: "a white coffee mug on a clean, modern desk."},
	{ID: "t-shirt", Name: "T-Shirt", Prompt: "a black t-shirt worn by a model in an urban street setting."},
	{ID: "billboard", Name: "Billboard", Prompt: "a large billboard in a bustling city square at dusk."},
	{ID: "laptop-screen", Name: "Laptop Screen", Prompt: "the screen of a modern laptop in a bright, airy office."},
	{ID: "poster", Name: "Poster", Prompt: "a poster on a weathered brick wall."},
}

// CompositeTemplates は2枚合成のテンプレートです。
var CompositeTemplates = []Preset{
	{ID: "product-ad", Name: "Product Ad", Prompt: "Create a professional product advertisement by placing the overlay image onto the base image background. Ensure lighting is commercial-grade."},
	{ID: "change-background", Name: "Change Background", Prompt: "Replace the background of the overlay image with the new background from the base image. Make the cutout clean and the blend seamless."},
	{ID: "artistic-blend", Name: "Artistic Blend", Prompt: "Blend the two images together in a creative, artistic, double-exposure style."},
}

// VideoPresets は動画生成のワンクリックプリセットです。
var VideoPresets = []Preset{
	{ID: "zoom-in", Name: "Zoom In", Prompt: "smooth zoom in effect"},
	{ID: "pan-left", Name: "Pan Left", Prompt: "smoothly pans from right to left"},
	{ID: "dolly", Name: "Dolly Effect", Prompt: "dolly effect, cinematic"},
	{ID: "shimmer", Name: "Shimmer", Prompt: "subtle shimmering and sparkling light effect"},
	{ID: "rotate", Name: "Rotate", Prompt: "slowly rotates clockwise"},
}

// VideoCustomTemplates はカスタム動画プロンプトのアイデアです。
var VideoCustomTemplates = []Preset{
	{ID: "fly-through", Name: "Cinematic Fly-Through", Prompt: "A dramatic, slow, cinematic fly-through of the scene."},
	{ID: "fade-to-color", Name: "Fade to Color", Prompt: "The image slowly transitions from black and white to full, vibrant color."},
	{ID: "floating-particles", Name: "Floating Particles", Prompt: "Subtle, glowing particles of light gently float across the screen."},
	{ID: "gentle-wind", Name: "Gentle Wind", Prompt: "A gentle breeze makes elements like leaves, hair, or fabric rustle and sway naturally."},
}

// AspectRatios はリサイズと画像生成で選択可能なアスペクト比です。
var AspectRatios = []AspectRatio{
	{Value: "1:1", Label: "1:1 Square"},
	{Value: "16:9", Label: "16:9 Widescreen"},
	{Value: "9:16", Label: "9:16 Vertical"},
	{Value: "4:3", Label: "4:3 Standard"},
	{Value: "3:4", Label: "3:4 Portrait"},
}

const (
	defaultCompositeInstruction = "Combine the two images seamlessly. The overlay image should realistically integrate with the base image, matching its lighting and style."
	defaultVariationInstruction = "Keep the core subject and composition, but explore a different artistic style."
	defaultExtendInstruction    = "Use your creative imagination to expand the scene."
)

// FindPreset は ID または名前(大文字小文字は区別しない)でプリセットを探します。
func FindPreset(presets []Preset, key string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == key || strings.EqualFold(p.Name, key) {
			return p, true
		}
	}
	return Preset{}, false
}

// IsSupportedAspectRatio は AspectRatios に含まれる値かどうかを返します。
func IsSupportedAspectRatio(v string) bool {
	for _, r := range AspectRatios {
		if r.Value == v {
			return true
		}
	}
	return false
}

// MockupPrompt はアップロード画像を target に配置するモックアップ指示を組み立てます。
func MockupPrompt(target string) string {
	target = strings.TrimSuffix(strings.TrimSpace(target), ".")
	return fmt.Sprintf("Create a photorealistic mockup. Place the uploaded image onto %s. Ensure lighting, shadows, and perspective are realistic.", target)
}

// CompositePrompt は空の指示を既定の合成指示に置き換えます。
func CompositePrompt(instruction string) string {
	if strings.TrimSpace(instruction) == "" {
		return defaultCompositeInstruction
	}
	return instruction
}

// VariationPrompt はスタイル違いのバリエーション生成指示を組み立てます。
func VariationPrompt(instruction string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = defaultVariationInstruction
	}
	return "Generate a stylistic variation of this image. " + instruction
}

// ExtendPrompt はアウトペインティング(キャンバス拡張)の指示を組み立てます。
func ExtendPrompt(instruction string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = defaultExtendInstruction
	}
	return "Extend the canvas of this image, creating a seamless outpainting effect. " + instruction
}

// ResizePrompt は被写体中心のクロップ指示を組み立てます。
func ResizePrompt(aspectRatio string) string {
	return fmt.Sprintf("Crop the image to an aspect ratio of %s. The crop should be centered on the main subject of the image. Do not add, remove, or change any content within the cropped area.", aspectRatio)
}
