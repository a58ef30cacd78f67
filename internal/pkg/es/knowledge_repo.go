package es

import (
	"AgentVendor/internal/pkg/util"
	"context"
	"errors"
	"sort"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

type KnowledgeRepo interface {
	HybridSearch(ctx context.Context, agentID uint64, queryText string, queryVector []float32, size int) ([]*KnowledgeChunkES, error)
	IndexChunk(ctx context.Context, chunk *KnowledgeChunkES) error
	DeleteChunk(ctx context.Context, id string) error
	DeleteByAgent(ctx context.Context, agentID uint64) error
	ListByAgent(ctx context.Context, agentID uint64, from, size int) ([]*KnowledgeChunkES, error)
}

type KnowledgeRepoImpl struct {
	client *elasticsearch.TypedClient
}

func NewKnowledgeRepo(client *elasticsearch.TypedClient) KnowledgeRepo {
	return &KnowledgeRepoImpl{client: client}
}

// HybridSearch 向量与文本并发召回后 RRF 融合
func (s *KnowledgeRepoImpl) HybridSearch(ctx context.Context, agentID uint64, queryText string, queryVector []float32, size int) ([]*KnowledgeChunkES, error) {
	agentFilter := []types.Query{{
		Term: map[string]types.TermQuery{
			"agent_id": {Value: agentID},
		},
	}}

	var (
		vectorResults []*KnowledgeChunkES
		textResults   []*KnowledgeChunkES
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		vectorResults, err = s.vectorSearch(gctx, queryVector, size*2, agentFilter)
		return err
	})

	g.Go(func() error {
		var err error
		textResults, err = s.textSearch(gctx, queryText, size*2, agentFilter)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := s.manualRRF(vectorResults, textResults)
	if len(merged) > size {
		merged = merged[:size]
	}
	return merged, nil
}

func (s *KnowledgeRepoImpl) vectorSearch(ctx context.Context, vector []float32, limit int, filters []types.Query) ([]*KnowledgeChunkES, error) {
	if len(vector) == 0 {
		return []*KnowledgeChunkES{}, nil
	}
	req := s.client.Search().Index(KnowledgeIndex).
		Knn(types.KnnSearch{
			Field:         "content_vector",
			QueryVector:   vector,
			K:             util.PtrInt(limit),
			NumCandidates: util.PtrInt(limit * 2),
			Filter:        filters,
		}).
		Source_(&types.SourceFilter{Excludes: []string{"content_vector"}}).
		Size(limit)

	return s.executeSearch(ctx, req)
}

func (s *KnowledgeRepoImpl) textSearch(ctx context.Context, text string, limit int, filters []types.Query) ([]*KnowledgeChunkES, error) {
	if text == "" {
		return []*KnowledgeChunkES{}, nil
	}

	req := s.client.Search().Index(KnowledgeIndex).
		Query(&types.Query{
			Bool: &types.BoolQuery{
				Should: []types.Query{
					{
						MultiMatch: &types.MultiMatchQuery{
							Query:  text,
							Fields: []string{"title^2", "content"},
							Boost:  util.PtrFloat32(2.0),
						},
					},
					{
						MultiMatch: &types.MultiMatchQuery{
							Query:     text,
							Fields:    []string{"title", "content"},
							Fuzziness: util.PtrStr("AUTO"),
							Boost:     util.PtrFloat32(0.5),
						},
					},
				},
				Filter: filters,
			},
		}).
		Source_(&types.SourceFilter{Excludes: []string{"content_vector"}}).
		Size(limit)

	return s.executeSearch(ctx, req)
}

func (s *KnowledgeRepoImpl) manualRRF(ranks ...[]*KnowledgeChunkES) []*KnowledgeChunkES {
	const k = 60
	scoreMap := make(map[string]float64)
	chunkMap := make(map[string]*KnowledgeChunkES)

	for _, resultList := range ranks {
		for rank, chunk := range resultList {
			scoreMap[chunk.ID] += 1.0 / float64(k+rank+1)
			chunkMap[chunk.ID] = chunk
		}
	}

	merged := make([]*KnowledgeChunkES, 0, len(chunkMap))
	for id := range chunkMap {
		merged = append(merged, chunkMap[id])
	}

	sort.Slice(merged, func(i, j int) bool {
		return scoreMap[merged[i].ID] > scoreMap[merged[j].ID]
	})

	return merged
}

func (s *KnowledgeRepoImpl) IndexChunk(ctx context.Context, chunk *KnowledgeChunkES) error {
	_, err := s.client.Index(KnowledgeIndex).
		Id(chunk.ID).
		Document(chunk).
		Do(ctx)
	return err
}

func (s *KnowledgeRepoImpl) DeleteChunk(ctx context.Context, id string) error {
	_, err := s.client.Delete(KnowledgeIndex, id).Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) {
			if e.Status == NotFoundCode {
				return nil
			}
		}
		return err
	}
	return nil
}

// DeleteByAgent 删除智能体时清空其知识库
func (s *KnowledgeRepoImpl) DeleteByAgent(ctx context.Context, agentID uint64) error {
	_, err := s.client.DeleteByQuery(KnowledgeIndex).
		Query(&types.Query{
			Term: map[string]types.TermQuery{
				"agent_id": {Value: agentID},
			},
		}).
		Do(ctx)
	return err
}

func (s *KnowledgeRepoImpl) ListByAgent(ctx context.Context, agentID uint64, from, size int) ([]*KnowledgeChunkES, error) {
	req := s.client.Search().Index(KnowledgeIndex).
		Query(&types.Query{
			Term: map[string]types.TermQuery{
				"agent_id": {Value: agentID},
			},
		}).
		Source_(&types.SourceFilter{Excludes: []string{"content_vector"}}).
		From(from).
		Size(size)

	return s.executeSearch(ctx, req)
}

func (s *KnowledgeRepoImpl) executeSearch(ctx context.Context, req *search.Search) ([]*KnowledgeChunkES, error) {
	resp, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*KnowledgeChunkES, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var chunk KnowledgeChunkES
		if hit.Source_ == nil {
			continue
		}
		if err = json.Unmarshal(hit.Source_, &chunk); err != nil {
			continue
		}
		if len(hit.Sort) > 0 {
			chunk.Sort = make([]interface{}, len(hit.Sort))
			for i, v := range hit.Sort {
				chunk.Sort[i] = v
			}
		}
		results = append(results, &chunk)
	}
	return results, nil
}
