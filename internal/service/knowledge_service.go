package service

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/pkg/es"
	"AgentVendor/internal/pkg/llm"
	"AgentVendor/internal/repository"
	"context"
	"time"

	"github.com/google/uuid"
)

type KnowledgeService interface {
	IndexKnowledge(ctx context.Context, userID uint64, dto *dto.IndexKnowledgeDTO) (string, error)
	ListKnowledge(ctx context.Context, userID uint64, agentID uint64, page, size int) ([]*dto.KnowledgeChunkDTO, error)
	DeleteKnowledge(ctx context.Context, userID uint64, agentID uint64, chunkID string) error
}

type KnowledgeServiceImpl struct {
	agentRepo     repository.AgentRepo
	knowledgeRepo es.KnowledgeRepo
	embedFunc     func(ctx context.Context, text string) ([]float32, error)
}

func NewKnowledgeService(agentRepo repository.AgentRepo, knowledgeRepo es.KnowledgeRepo) KnowledgeService {
	return &KnowledgeServiceImpl{
		agentRepo:     agentRepo,
		knowledgeRepo: knowledgeRepo,
		embedFunc:     llm.Embed,
	}
}

// IndexKnowledge 写入一条知识分块，向量在写入时同步计算
func (s *KnowledgeServiceImpl) IndexKnowledge(ctx context.Context, userID uint64, indexDTO *dto.IndexKnowledgeDTO) (string, error) {
	if err := s.checkOwnership(ctx, userID, indexDTO.AgentID); err != nil {
		return "", err
	}

	vector, err := s.embedFunc(ctx, indexDTO.Title+"\n"+indexDTO.Content)
	if err != nil {
		return "", err
	}

	now := time.Now()
	chunk := &es.KnowledgeChunkES{
		ID:            uuid.NewString(),
		AgentID:       indexDTO.AgentID,
		Title:         indexDTO.Title,
		Content:       indexDTO.Content,
		ContentVector: vector,
		SourceURL:     indexDTO.SourceURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = s.knowledgeRepo.IndexChunk(ctx, chunk); err != nil {
		return "", err
	}
	return chunk.ID, nil
}

func (s *KnowledgeServiceImpl) ListKnowledge(ctx context.Context, userID uint64, agentID uint64, page, size int) ([]*dto.KnowledgeChunkDTO, error) {
	if err := s.checkOwnership(ctx, userID, agentID); err != nil {
		return nil, err
	}

	chunks, err := s.knowledgeRepo.ListByAgent(ctx, agentID, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	list := make([]*dto.KnowledgeChunkDTO, 0, len(chunks))
	for _, chunk := range chunks {
		list = append(list, &dto.KnowledgeChunkDTO{
			ID:        chunk.ID,
			AgentID:   chunk.AgentID,
			Title:     chunk.Title,
			Content:   chunk.Content,
			SourceURL: chunk.SourceURL,
		})
	}
	return list, nil
}

func (s *KnowledgeServiceImpl) DeleteKnowledge(ctx context.Context, userID uint64, agentID uint64, chunkID string) error {
	if err := s.checkOwnership(ctx, userID, agentID); err != nil {
		return err
	}
	return s.knowledgeRepo.DeleteChunk(ctx, chunkID)
}

func (s *KnowledgeServiceImpl) checkOwnership(ctx context.Context, userID uint64, agentID uint64) error {
	agent, err := s.agentRepo.GetAgentById(ctx, agentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return ErrAgentNotFound
	}
	if agent.CreatorID != userID {
		return ErrAgentForbidden
	}
	return nil
}
