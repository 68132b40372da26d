// internal/service/pipeline_store.go
package service

import (
	"context"

	"lecteuraide/internal/model"
	"lecteuraide/internal/pipeline"
	"lecteuraide/internal/repository"

	"gorm.io/gorm"
)

// gormPipelineStore はパイプラインの永続化ゲートウェイ (pipeline.Store) のGORM実装です。
// 各 Append はエンティティ単位のトランザクションで書き込みます。チャンクをまたぐ
// トランザクションは張らないため、失敗したジョブの部分的な結果はDBに残ります。
type gormPipelineStore struct {
	db        *gorm.DB
	sceneRepo repository.SceneRepository
	jobRepo   repository.JobRepository
}

func NewPipelineStore(db *gorm.DB, sceneRepo repository.SceneRepository, jobRepo repository.JobRepository) pipeline.Store {
	return &gormPipelineStore{
		db:        db,
		sceneRepo: sceneRepo,
		jobRepo:   jobRepo,
	}
}

func (s *gormPipelineStore) AppendScene(ctx context.Context, scene *model.Scene) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.sceneRepo.CreateScene(ctx, tx, scene)
	})
}

func (s *gormPipelineStore) AppendSentences(ctx context.Context, sentences []model.Sentence) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.sceneRepo.CreateSentences(ctx, tx, sentences)
	})
}

func (s *gormPipelineStore) AppendExercise(ctx context.Context, exercise *model.SceneExercise) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.sceneRepo.CreateExercise(ctx, tx, exercise)
	})
}

func (s *gormPipelineStore) SaveJob(ctx context.Context, job *model.IngestionJob) error {
	return s.jobRepo.Save(ctx, s.db, job)
}
