// internal/translate/aws.go
package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"lecteuraide/internal/config"
	"lecteuraide/internal/pipeline"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awstranslate "github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/aws/aws-sdk-go-v2/service/translate/types"
)

// AWSTranslator は AWS Translate を使う pipeline.Translator の実装です
type AWSTranslator struct {
	client *awstranslate.Client
	logger *slog.Logger
}

// NewAWSTranslator は設定に応じて認証方法を切り替えてTranslateクライアントを生成します
func NewAWSTranslator(cfg *config.Config, logger *slog.Logger) (*AWSTranslator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var awsCfgOpts []func(*awsconfig.LoadOptions) error
	awsCfgOpts = append(awsCfgOpts, awsconfig.WithRegion(cfg.Translator.Region))

	if cfg.Translator.AccessKey != "" && cfg.Translator.SecretKey != "" {
		// 静的認証情報が与えられていればそれを使う。なければIAMロール等のデフォルト解決に任せる
		logger.Info("Configuring AWS Translate with static credentials.")
		creds := credentials.NewStaticCredentialsProvider(
			cfg.Translator.AccessKey,
			cfg.Translator.SecretKey,
			"",
		)
		awsCfgOpts = append(awsCfgOpts, awsconfig.WithCredentialsProvider(creds))
	} else {
		logger.Info("Configuring AWS Translate with default credential chain.")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsCfgOpts...)
	if err != nil {
		logger.Error("Failed to load AWS config for Translate", "error", err)
		return nil, err
	}

	return &AWSTranslator{
		client: awstranslate.NewFromConfig(awsCfg),
		logger: logger,
	}, nil
}

// TranslateSentence は1文を翻訳します (pipeline.Translator)。
// 翻訳不能な入力 (記号のみ・非対応言語ペア) は ErrUntranslatable、
// それ以外のサービスエラーは一時障害として分類します。
func (t *AWSTranslator) TranslateSentence(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if !hasTranslatableContent(text) {
		return "", pipeline.ErrUntranslatable
	}

	input := &awstranslate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(sourceLang),
		TargetLanguageCode: aws.String(targetLang),
	}

	out, err := t.client.TranslateText(ctx, input)
	if err != nil {
		var unsupported *types.UnsupportedLanguagePairException
		if errors.As(err, &unsupported) {
			t.logger.Warn("Unsupported language pair", "source", sourceLang, "target", targetLang)
			return "", pipeline.ErrUntranslatable
		}
		var invalid *types.InvalidRequestException
		if errors.As(err, &invalid) {
			return "", pipeline.ErrUntranslatable
		}
		return "", pipeline.NewTransientError("translation", err)
	}

	translated := strings.TrimSpace(aws.ToString(out.TranslatedText))
	if translated == "" {
		return "", pipeline.NewTransientError("translation", errors.New("empty translation result"))
	}
	return translated, nil
}

// hasTranslatableContent は文字または数字を1つでも含むかを判定します。
// 記号や空白だけの「文」をAPIに送っても意味のある結果は得られません。
func hasTranslatableContent(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
