//go:generate mockery --name SceneRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"lecteuraide/internal/middleware"
	"lecteuraide/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SceneRepository はパイプラインが生成するシーン・文・練習問題の書き込みを担います
type SceneRepository interface {
	CreateScene(ctx context.Context, tx *gorm.DB, scene *model.Scene) error
	CreateSentences(ctx context.Context, tx *gorm.DB, sentences []model.Sentence) error
	CreateExercise(ctx context.Context, tx *gorm.DB, exercise *model.SceneExercise) error
}

type gormSceneRepository struct{}

func NewGormSceneRepository() SceneRepository {
	return &gormSceneRepository{}
}

// PostgreSQLの一意制約違反エラーコード
const pgUniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode
}

func (r *gormSceneRepository) CreateScene(ctx context.Context, tx *gorm.DB, scene *model.Scene) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(scene)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			// (book_id, scene_index) の重複。正常なランナーでは起きない
			return model.ErrConflict
		}
		logger.Error("Error creating scene in DB",
			"error", result.Error,
			"book_id", scene.BookID.String(),
			"scene_index", scene.SceneIndex,
		)
		return fmt.Errorf("gormSceneRepository.CreateScene: %w", result.Error)
	}
	return nil
}

func (r *gormSceneRepository) CreateSentences(ctx context.Context, tx *gorm.DB, sentences []model.Sentence) error {
	if len(sentences) == 0 {
		return nil
	}
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(&sentences)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return model.ErrConflict
		}
		logger.Error("Error creating sentences in DB",
			"error", result.Error,
			"scene_id", sentences[0].SceneID.String(),
			"count", len(sentences),
		)
		return fmt.Errorf("gormSceneRepository.CreateSentences: %w", result.Error)
	}
	return nil
}

func (r *gormSceneRepository) CreateExercise(ctx context.Context, tx *gorm.DB, exercise *model.SceneExercise) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(exercise)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return model.ErrConflict
		}
		logger.Error("Error creating scene exercise in DB",
			"error", result.Error,
			"scene_id", exercise.SceneID.String(),
		)
		return fmt.Errorf("gormSceneRepository.CreateExercise: %w", result.Error)
	}
	return nil
}
