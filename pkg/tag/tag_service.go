package tag

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Zimnyaja/foodgram/domain"
)

type (
	TagService interface {
		GetTags(ctx context.Context) ([]domain.TagResponse, error)
		GetTagDetail(ctx context.Context, id int64) (domain.TagResponse, error)
	}

	tagService struct {
		tagRepository TagRepository
	}
)

func NewTagService(tagRepository TagRepository) TagService {
	return &tagService{tagRepository: tagRepository}
}

func (s *tagService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.tagRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.TagResponse, 0, len(tags))
	for _, t := range tags {
		responses = append(responses, domain.TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return responses, nil
}

func (s *tagService) GetTagDetail(ctx context.Context, id int64) (domain.TagResponse, error) {
	t, err := s.tagRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}
	return domain.TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug}, nil
}
