// internal/pipeline/runner.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lecteuraide/internal/model"
)

// Store はランナーが使う永続化ゲートウェイです。各 Append はエンティティ単位で
// アトミックですが、チャンクをまたぐトランザクション性は要求しません
// (部分的に取り込まれた書籍は許容される中間状態です)。
type Store interface {
	AppendScene(ctx context.Context, scene *model.Scene) error
	AppendSentences(ctx context.Context, sentences []model.Sentence) error
	AppendExercise(ctx context.Context, exercise *model.SceneExercise) error
	SaveJob(ctx context.Context, job *model.IngestionJob) error
}

// Config はランナーの動作パラメータです
type Config struct {
	ChunkMaxChars    int
	Retry            RetryPolicy
	SceneConcurrency int // シーン内のエンリッチ処理の同時実行上限
	QuestionLimit    int // 1シーンあたりに保存する設問数の上限
	TargetLanguage   string
}

// Runner は1つの取り込みジョブのライフサイクルを所有します。
// チャンクは文書順に逐次処理し、結果を逐次永続化し、チャンク完了ごとに
// 進捗を通知します。ジョブレコードの状態遷移はこのランナーだけが行います。
type Runner struct {
	store  Store
	stages Stages
	cfg    Config
	logger *slog.Logger
}

func NewRunner(store Store, stages Stages, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SceneConcurrency <= 0 {
		cfg.SceneConcurrency = 4
	}
	if cfg.QuestionLimit <= 0 {
		cfg.QuestionLimit = 4
	}
	return &Runner{store: store, stages: stages, cfg: cfg, logger: logger}
}

// Run はジョブを完了または失敗まで駆動します。呼び出し元のHTTP接続とは独立した
// コンテキストで呼ぶこと (ストリームの切断が取り込みを中断してはなりません)。
func (r *Runner) Run(ctx context.Context, book *model.Book, job *model.IngestionJob, text string, em *Emitter) {
	logger := r.logger.With("job_id", job.JobID.String(), "book_id", book.BookID.String())

	now := time.Now()
	job.Status = model.JobStatusRunning
	job.StartedAt = now
	job.UpsertStep(model.StepChunking, model.StepStateRunning, now)
	if err := r.store.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to persist job start", "error", err)
		r.failJob(ctx, logger, job, "ジョブの開始を記録できませんでした", nil)
		em.Fail("ジョブの開始に失敗しました")
		return
	}

	chunks := SplitChunks(text, r.cfg.ChunkMaxChars)
	total := len(chunks)
	job.UpsertStep(model.StepChunking, model.StepStateCompleted, time.Now())
	logger.Info("Document chunked", "total_chunks", total)

	em.Progress(0, total)

	// 空文書はシーン0件で正常完了
	if total == 0 {
		r.finishJob(ctx, logger, job, false, false)
		em.Completed(book.BookID, 0)
		return
	}

	job.UpsertStep(model.StepSegmentation, model.StepStateRunning, time.Now())
	job.UpsertStep(model.StepTranslation, model.StepStateRunning, time.Now())
	job.UpsertStep(model.StepExercises, model.StepStateRunning, time.Now())

	sceneOrdinal := 0
	translationDegraded := false
	exercisesDegraded := false

	for i, chunk := range chunks {
		chunkNo := i + 1 // 外部向けのチャンク番号は1始まり

		scenes, err := r.segmentChunk(ctx, chunk, i, total)
		if err != nil {
			// セグメント不能なチャンクは文書構造を壊すためジョブ全体が失敗する。
			// 翻訳・語彙・設問の欠落と違い、ここだけは劣化継続できない。
			logger.Error("Segmentation failed for chunk", "chunk", chunkNo, "error", err)
			job.UpsertStep(model.StepSegmentation, model.StepStateFailed, time.Now())
			r.failJob(ctx, logger, job, fmt.Sprintf("チャンク %d を分割できませんでした", chunkNo), &chunkNo)
			em.Fail(fmt.Sprintf("チャンク %d の解析に失敗したため取り込みを中断しました", chunkNo))
			return
		}

		for _, seg := range scenes {
			scene := &model.Scene{
				SceneID:    uuid.New(),
				BookID:     book.BookID,
				SceneIndex: sceneOrdinal,
				Title:      seg.Title,
				Summary:    seg.Summary,
				RawText:    joinSentences(seg.Sentences),
			}
			if err := r.store.AppendScene(ctx, scene); err != nil {
				logger.Error("Failed to persist scene", "scene_index", sceneOrdinal, "error", err)
				r.failJob(ctx, logger, job, "シーンの保存に失敗しました", &chunkNo)
				em.Fail("取り込み結果の保存に失敗しました")
				return
			}

			enriched := r.enrichScene(ctx, logger, book, scene, seg, chunk.HardSplit)
			if enriched.translationDegraded {
				translationDegraded = true
			}
			if enriched.exercisesDegraded {
				exercisesDegraded = true
			}

			if err := r.store.AppendSentences(ctx, enriched.sentences); err != nil {
				logger.Error("Failed to persist sentences", "scene_index", sceneOrdinal, "error", err)
				r.failJob(ctx, logger, job, "文の保存に失敗しました", &chunkNo)
				em.Fail("取り込み結果の保存に失敗しました")
				return
			}
			if err := r.store.AppendExercise(ctx, enriched.exercise); err != nil {
				logger.Error("Failed to persist exercise", "scene_index", sceneOrdinal, "error", err)
				r.failJob(ctx, logger, job, "練習問題の保存に失敗しました", &chunkNo)
				em.Fail("取り込み結果の保存に失敗しました")
				return
			}
			sceneOrdinal++
		}

		// 進捗はチャンクが (劣化も含めて) 完全に終わった後にのみ進める
		if err := r.store.SaveJob(ctx, job); err != nil {
			logger.Warn("Failed to persist job progress", "chunk", chunkNo, "error", err)
		}
		em.Progress(chunkNo, total)
		logger.Info("Chunk processed", "chunk", chunkNo, "total_chunks", total, "scenes_so_far", sceneOrdinal)
	}

	r.finishJob(ctx, logger, job, translationDegraded, exercisesDegraded)
	em.Completed(book.BookID, sceneOrdinal)
	logger.Info("Ingestion completed", "scene_count", sceneOrdinal)
}

// segmentChunk はリトライ付きでセグメンタを実行し、空のシーンを除外します
func (r *Runner) segmentChunk(ctx context.Context, chunk Chunk, index, total int) ([]SegmentedScene, error) {
	var raw []SegmentedScene
	err := r.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		scenes, err := r.stages.Segmenter.SegmentChunk(ctx, chunk.Text, index, total)
		if err != nil {
			return err
		}
		raw = scenes
		return nil
	})
	if err != nil {
		return nil, err
	}

	scenes := make([]SegmentedScene, 0, len(raw))
	for _, s := range raw {
		sentences := make([]string, 0, len(s.Sentences))
		for _, sent := range s.Sentences {
			if NormalizeWhitespace(sent) != "" {
				sentences = append(sentences, sent)
			}
		}
		if len(sentences) == 0 {
			continue
		}
		s.Sentences = sentences
		scenes = append(scenes, s)
	}
	if len(scenes) == 0 {
		return nil, NewFatalError("segmentation", errors.New("no sentences produced for chunk"))
	}
	return scenes, nil
}

type enrichedScene struct {
	sentences           []model.Sentence
	exercise            *model.SceneExercise
	translationDegraded bool
	exercisesDegraded   bool
}

// enrichScene は1シーンの文翻訳・語彙抽出・設問生成を同時実行します。
// この3つは互いに独立なので並行に走らせますが、シーンが「完了」になるのは
// 全てが成功するか劣化として記録された後です。エンリッチ処理の失敗はジョブを
// 止めず、品質フラグ付きで続行します。
func (r *Runner) enrichScene(ctx context.Context, logger *slog.Logger, book *model.Book, scene *model.Scene, seg SegmentedScene, hardSplit bool) enrichedScene {
	sentences := make([]model.Sentence, len(seg.Sentences))
	for i, text := range seg.Sentences {
		sentences[i] = model.Sentence{
			SentenceID:    uuid.New(),
			SceneID:       scene.SceneID,
			SentenceIndex: i,
			SourceText:    text,
		}
	}

	exercise := &model.SceneExercise{
		ExerciseID: uuid.New(),
		SceneID:    scene.SceneID,
		Vocabulary: []model.VocabularyItem{},
		Questions:  []model.Question{},
	}
	if hardSplit {
		exercise.QualityFlags = append(exercise.QualityFlags, model.FlagHardSplit)
	}

	result := enrichedScene{exercise: exercise}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.SceneConcurrency)

	for i := range sentences {
		g.Go(func() error {
			var translated string
			err := r.cfg.Retry.Do(gctx, func(ctx context.Context) error {
				t, err := r.stages.Translator.TranslateSentence(ctx, sentences[i].SourceText, book.LanguageCode, r.cfg.TargetLanguage)
				if err != nil {
					return err
				}
				translated = t
				return nil
			})
			if err != nil {
				// リトライ枯渇・翻訳不能のどちらも文は捨てず、翻訳なしで保存する
				logger.Warn("Translation degraded for sentence",
					"scene_index", scene.SceneIndex,
					"sentence_index", sentences[i].SentenceIndex,
					"error", err,
				)
				sentences[i].QualityFlags = append(sentences[i].QualityFlags, model.FlagTranslationFailed)
				return nil
			}
			sentences[i].TranslatedText = &translated
			return nil
		})
	}

	// 設問生成は語彙リストを入力に取るため、語彙抽出の完了をチャネルで待つ。
	// 文の翻訳はその間も並行に進む。
	vocabCh := make(chan []model.VocabularyItem, 1)

	var vocab []model.VocabularyItem
	vocabFailed := false
	g.Go(func() error {
		err := r.cfg.Retry.Do(gctx, func(ctx context.Context) error {
			v, err := r.stages.Vocabulary.ExtractVocabulary(ctx, scene.RawText)
			if err != nil {
				return err
			}
			vocab = v
			return nil
		})
		if err != nil {
			logger.Warn("Vocabulary extraction degraded", "scene_index", scene.SceneIndex, "error", err)
			vocabFailed = true
		}
		vocabCh <- vocab
		return nil
	})

	var questions []model.Question
	questionsFailed := false
	questionDropped := false
	g.Go(func() error {
		sceneVocab := <-vocabCh
		var raw []model.Question
		err := r.cfg.Retry.Do(gctx, func(ctx context.Context) error {
			q, err := r.stages.Questions.GenerateQuestions(ctx, scene.RawText, sceneVocab)
			if err != nil {
				return err
			}
			raw = q
			return nil
		})
		if err != nil {
			logger.Warn("Question generation degraded", "scene_index", scene.SceneIndex, "error", err)
			questionsFailed = true
			return nil
		}
		questions, questionDropped = r.validQuestions(logger, scene.SceneIndex, raw)
		return nil
	})

	_ = g.Wait() // 各goroutineはエラーを返さない (劣化はフラグで表現する)

	for i := range sentences {
		if len(sentences[i].QualityFlags) > 0 {
			result.translationDegraded = true
			break
		}
	}

	if vocabFailed {
		exercise.QualityFlags = append(exercise.QualityFlags, model.FlagVocabularyFailed)
		result.exercisesDegraded = true
	} else if vocab != nil {
		exercise.Vocabulary = vocab
	}
	if questionsFailed {
		exercise.QualityFlags = append(exercise.QualityFlags, model.FlagQuestionsFailed)
		result.exercisesDegraded = true
	} else {
		exercise.Questions = questions
		if questionDropped {
			exercise.QualityFlags = append(exercise.QualityFlags, model.FlagQuestionDropped)
		}
	}

	result.sentences = sentences
	return result
}

// validQuestions は正解がちょうど1つの設問のみを通し、上限数に切り詰めます。
// 不正な設問は保存せず破棄します (ジョブには影響しません)。
func (r *Runner) validQuestions(logger *slog.Logger, sceneIndex int, raw []model.Question) ([]model.Question, bool) {
	valid := make([]model.Question, 0, len(raw))
	dropped := false
	for _, q := range raw {
		correct := 0
		for _, opt := range q.Options {
			if opt.IsCorrect {
				correct++
			}
		}
		if q.Prompt == "" || len(q.Options) < 2 || correct != 1 {
			logger.Warn("Dropping malformed question",
				"scene_index", sceneIndex,
				"options", len(q.Options),
				"correct_options", correct,
			)
			dropped = true
			continue
		}
		if len(valid) < r.cfg.QuestionLimit {
			valid = append(valid, q)
		}
	}
	return valid, dropped
}

func (r *Runner) finishJob(ctx context.Context, logger *slog.Logger, job *model.IngestionJob, translationDegraded, exercisesDegraded bool) {
	now := time.Now()
	job.UpsertStep(model.StepSegmentation, model.StepStateCompleted, now)
	if translationDegraded {
		job.UpsertStep(model.StepTranslation, model.StepStateDegraded, now)
	} else {
		job.UpsertStep(model.StepTranslation, model.StepStateCompleted, now)
	}
	if exercisesDegraded {
		job.UpsertStep(model.StepExercises, model.StepStateDegraded, now)
	} else {
		job.UpsertStep(model.StepExercises, model.StepStateCompleted, now)
	}
	job.UpsertStep(model.StepFinalize, model.StepStateCompleted, now)
	job.Status = model.JobStatusCompleted
	job.FinishedAt = &now
	if err := r.store.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to persist job completion", "error", err)
	}
}

func (r *Runner) failJob(ctx context.Context, logger *slog.Logger, job *model.IngestionJob, detail string, failedChunk *int) {
	now := time.Now()
	job.Status = model.JobStatusFailed
	job.FinishedAt = &now
	job.ErrorDetail = &detail
	job.FailedChunk = failedChunk
	job.UpsertStep(model.StepFinalize, model.StepStateFailed, now)
	if err := r.store.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to persist job failure", "error", err)
	}
}

func joinSentences(sentences []string) string {
	out := ""
	for i, s := range sentences {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}
