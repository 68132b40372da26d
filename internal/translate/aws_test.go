package translate

import (
	"context"
	"testing"

	"lecteuraide/internal/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestHasTranslatableContent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"通常の文", "Le chat dort.", true},
		{"数字のみ", "1945", true},
		{"記号のみ", "*** --- !!!", false},
		{"空白のみ", "   ", false},
		{"空文字", "", false},
		{"アクセント付き文字", "élève", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasTranslatableContent(tt.text))
		})
	}
}

func TestAWSTranslator_UntranslatableInput(t *testing.T) {
	// 記号のみの入力はAPIを呼ばずに翻訳不能として返す
	tr := &AWSTranslator{}
	_, err := tr.TranslateSentence(context.Background(), "*** ---", "fr", "en")
	assert.ErrorIs(t, err, pipeline.ErrUntranslatable)
}
