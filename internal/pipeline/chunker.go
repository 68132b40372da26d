// internal/pipeline/chunker.go
package pipeline

import (
	"strings"
)

// Chunk は取り込み処理の反復単位となる、元テキストの連続した断片です
type Chunk struct {
	Index     int
	Text      string
	HardSplit bool // 段落が上限を超えて強制分割された場合 true
}

// SplitChunks は生テキストを上限文字数以下のチャンク列に分割します。
// 分割点は段落境界を最優先し、収まらない段落は文末・空白へ順に後退します。
// チャンクを空白正規化して連結すると元テキスト (同じく正規化したもの) に一致します。
// 空のテキストはチャンク0件を返します (これは成功であり失敗ではありません)。
func SplitChunks(text string, maxChars int) []Chunk {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = 6000
	}

	paragraphs := splitParagraphs(cleaned)

	var chunks []Chunk
	var buf strings.Builder
	flush := func(hardSplit bool) {
		if buf.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			Text:      buf.String(),
			HardSplit: hardSplit,
		})
		buf.Reset()
	}

	for _, para := range paragraphs {
		if len(para) > maxChars {
			// 段落単体が上限超過。現在のバッファを確定してから強制分割する。
			flush(false)
			for _, piece := range hardSplitParagraph(para, maxChars) {
				chunks = append(chunks, Chunk{
					Index:     len(chunks),
					Text:      piece,
					HardSplit: true,
				})
			}
			continue
		}
		// 段落区切りの改行2文字分を加味して上限判定
		if buf.Len() > 0 && buf.Len()+2+len(para) > maxChars {
			flush(false)
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}
	flush(false)

	return chunks
}

// NormalizeWhitespace は連結・再構成の比較に使う空白正規化です
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// hardSplitParagraph は上限超過の段落を文末・空白境界を優先しつつ分割します。
// 境界が全く見つからない場合のみ上限位置で切ります。
func hardSplitParagraph(para string, maxChars int) []string {
	var pieces []string
	rest := para
	for len(rest) > maxChars {
		cut := findSplitPoint(rest, maxChars)
		piece := strings.TrimSpace(rest[:cut])
		if piece != "" {
			pieces = append(pieces, piece)
		}
		rest = strings.TrimSpace(rest[cut:])
	}
	if rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

var sentenceEnders = []string{". ", "! ", "? ", "。", "！", "？"}

func findSplitPoint(s string, maxChars int) int {
	window := s[:maxChars]

	// 文末を優先 (原文側に句点を残す)
	best := -1
	for _, end := range sentenceEnders {
		if idx := strings.LastIndex(window, end); idx >= 0 && idx+len(end) > best {
			best = idx + len(end)
		}
	}
	// 先頭付近での分割は断片が小さすぎるため避ける
	if best > maxChars/4 {
		return best
	}
	// 次善: 空白
	if idx := strings.LastIndexAny(window, " \n\t"); idx > 0 {
		return idx
	}
	// 境界なし (空白を含まない超長文字列)。上限位置で切るしかない。
	return maxChars
}
