package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPreset          = errors.New("unknown preset")
	ErrUnknownEditMode        = errors.New("unknown edit mode")
	ErrUnsupportedAspectRatio = errors.New("unsupported aspect ratio")
	ErrEmptyPrompt            = errors.New("prompt is empty")
)

// EditMode は単一画像編集の種類です。
type EditMode string

const (
	EditInstruct  EditMode = "instruct"
	EditMockup    EditMode = "mockup"
	EditVariation EditMode = "variation"
	EditExtend    EditMode = "extend"
	EditResize    EditMode = "resize"
)

// BuildEditPrompt は編集モードとプリセット、自由入力から送信する指示文を組み立てます。
// resize の場合 text はアスペクト比として扱います。
func BuildEditPrompt(mode EditMode, preset, text string) (string, error) {
	switch mode {
	case "", EditInstruct:
		if preset != "" {
			p, ok := FindPreset(InstructTemplates, preset)
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
			}
			return p.Prompt, nil
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyPrompt
		}
		return text, nil
	case EditMockup:
		target := text
		if preset != "" {
			p, ok := FindPreset(MockupTemplates, preset)
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
			}
			target = p.Prompt
		}
		if strings.TrimSpace(target) == "" {
			return "", ErrEmptyPrompt
		}
		return MockupPrompt(target), nil
	case EditVariation:
		return VariationPrompt(text), nil
	case EditExtend:
		return ExtendPrompt(text), nil
	case EditResize:
		if !IsSupportedAspectRatio(text) {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedAspectRatio, text)
		}
		return ResizePrompt(text), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownEditMode, mode)
}

// BuildCompositePrompt はプリセットがあればそれを、無ければ自由入力（空なら既定の指示）を返します。
func BuildCompositePrompt(preset, text string) (string, error) {
	if preset == "" {
		return CompositePrompt(text), nil
	}
	p, ok := FindPreset(CompositeTemplates, preset)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
	return p.Prompt, nil
}

// BuildVideoPrompt は動画プリセットまたはカスタムテンプレートから指示文を選びます。
func BuildVideoPrompt(preset, text string) (string, error) {
	if preset != "" {
		if p, ok := FindPreset(VideoPresets, preset); ok {
			return p.Prompt, nil
		}
		if p, ok := FindPreset(VideoCustomTemplates, preset); ok {
			return p.Prompt, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPrompt
	}
	return text, nil
}
