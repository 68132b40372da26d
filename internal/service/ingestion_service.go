// internal/service/ingestion_service.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"lecteuraide/internal/middleware"
	"lecteuraide/internal/model"
	"lecteuraide/internal/pipeline"
	"lecteuraide/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IngestionService interface {
	StartIngestion(ctx context.Context, req *model.IngestBookRequest) (<-chan pipeline.Event, uuid.UUID, error)
}

type ingestionService struct {
	db       *gorm.DB
	bookRepo repository.BookRepository
	jobRepo  repository.JobRepository
	runner   *pipeline.Runner
	registry *pipeline.Registry
	logger   *slog.Logger
}

func NewIngestionService(
	db *gorm.DB,
	bookRepo repository.BookRepository,
	jobRepo repository.JobRepository,
	runner *pipeline.Runner,
	registry *pipeline.Registry,
	logger *slog.Logger,
) IngestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestionService{
		db:       db,
		bookRepo: bookRepo,
		jobRepo:  jobRepo,
		runner:   runner,
		registry: registry,
		logger:   logger,
	}
}

// StartIngestion は書籍とジョブレコードを作成し、バックグラウンドで取り込みを開始します。
// 返されたチャネルには進捗イベントが流れ、終端イベント (completed / error) の後に
// クローズされます。呼び出し元が購読をやめても取り込みは最後まで走ります。
func (s *ingestionService) StartIngestion(ctx context.Context, req *model.IngestBookRequest) (<-chan pipeline.Event, uuid.UUID, error) {
	if strings.TrimSpace(req.Title) == "" || req.Text == "" {
		return nil, uuid.Nil, model.ErrInvalidInput
	}

	languageCode := req.LanguageCode
	if languageCode == "" {
		languageCode = "fr"
	}

	book := &model.Book{
		BookID:       uuid.New(),
		Title:        strings.TrimSpace(req.Title),
		Author:       strings.TrimSpace(req.Author),
		LanguageCode: languageCode,
	}
	job := &model.IngestionJob{
		JobID:  uuid.New(),
		BookID: book.BookID,
		Status: model.JobStatusPending,
		Steps:  []model.JobStep{},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookRepo.Create(ctx, tx, book); err != nil {
			return model.ErrInternalServer
		}
		if err := s.jobRepo.Create(ctx, tx, job); err != nil {
			return model.ErrInternalServer
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create book and job records", "error", err)
		return nil, uuid.Nil, model.ErrInternalServer
	}

	if err := s.registry.Acquire(book.BookID, job.JobID); err != nil {
		// 新規採番の書籍なので通常は起きない。起きたら登録の不整合。
		return nil, uuid.Nil, err
	}

	em := pipeline.NewEmitter(16)
	jobLogger := s.logger.With("job_id", job.JobID.String(), "book_id", book.BookID.String())

	// HTTP接続と寿命を切り離したコンテキストで実行する。
	// ストリームの切断は取り込みを中断しない。
	runCtx := middleware.NewContextWithLogger(context.Background(), jobLogger)
	go func() {
		defer s.registry.Release(book.BookID)
		defer func() {
			if rec := recover(); rec != nil {
				jobLogger.Error("Ingestion runner panicked", "panic", rec)
				s.markJobFailed(runCtx, job)
				em.Fail("取り込み処理が異常終了しました")
			}
		}()
		s.runner.Run(runCtx, book, job, req.Text, em)
	}()

	return em.Events(), book.BookID, nil
}

// markJobFailed はパニック後の後始末としてジョブを失敗で確定させます
func (s *ingestionService) markJobFailed(ctx context.Context, job *model.IngestionJob) {
	if job.Status.IsTerminal() {
		return
	}
	now := time.Now()
	detail := "internal error"
	job.Status = model.JobStatusFailed
	job.FinishedAt = &now
	job.ErrorDetail = &detail
	if err := s.jobRepo.Save(ctx, s.db, job); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Failed to persist job failure after panic", "job_id", job.JobID.String(), "error", err)
	}
}
