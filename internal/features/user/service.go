package user

import (
	"context"

	"go-agri/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
)

type UserService interface {
	List(ctx context.Context, role string, page, pageSize int64) ([]models.User, int64, error)
}

type UserServiceImpl struct {
	Repo UserRepository
}

func NewUserService(repo UserRepository) UserService {
	return &UserServiceImpl{Repo: repo}
}

func (s *UserServiceImpl) List(ctx context.Context, role string, page, pageSize int64) ([]models.User, int64, error) {
	filter := bson.M{"active": true}
	if role != "" {
		filter["role"] = role
	}
	return s.Repo.List(ctx, filter, pageSize, (page-1)*pageSize)
}
