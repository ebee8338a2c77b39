package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ray-SDJ/comparison/internal/cache"
	dom "github.com/ray-SDJ/comparison/internal/domain"
	"github.com/ray-SDJ/comparison/internal/repo"

	"golang.org/x/sync/singleflight"
)

// UserService holds the rules that sit between transport and storage.
type UserService struct {
	repo  repo.UserRepo
	cache *cache.UserCache
	sf    singleflight.Group
}

// NewUserService creates a UserService. If c is nil, caching is disabled.
func NewUserService(r repo.UserRepo, c *cache.UserCache) *UserService {
	return &UserService{repo: r, cache: c}
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]dom.User, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		gen, genErr := s.cache.Generation(ctx)
		if list, err := s.cache.GetList(ctx); err == nil && list != nil {
			return list, nil
		}
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			log.Printf("user cache generation: %v", genErr)
		} else if err := s.cache.SetList(ctx, gen, list); err != nil {
			log.Printf("user cache set list: %v", err)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.User), nil
}

// GetUserByID answers ErrNotFound for non-positive ids without a storage round trip.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (dom.User, error) {
	if id <= 0 {
		return dom.User{}, dom.ErrNotFound
	}
	if s.cache == nil {
		return s.repo.GetByID(ctx, id)
	}
	v, err, _ := s.sf.Do("id:"+strconv.FormatInt(id, 10), func() (interface{}, error) {
		gen, genErr := s.cache.Generation(ctx)
		if u, ok, err := s.cache.GetUser(ctx, id); err == nil && ok {
			return u, nil
		}
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			log.Printf("user cache generation: %v", genErr)
		} else if err := s.cache.SetUser(ctx, gen, u); err != nil {
			log.Printf("user cache set %d: %v", id, err)
		}
		return u, nil
	})
	if err != nil {
		return dom.User{}, err
	}
	return v.(dom.User), nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (dom.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return dom.User{}, dom.ErrNotFound
	}
	return s.repo.GetByEmail(ctx, email)
}

// CreateUser validates u and stores it. The returned user carries the new id.
func (s *UserService) CreateUser(ctx context.Context, u dom.User) (dom.User, error) {
	u.ID = 0
	if err := u.Validate(); err != nil {
		return dom.User{}, err
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return dom.User{}, err
	}
	s.invalidateCache(ctx)
	return u, nil
}

// UpdateUser replaces the fields of user id with details and returns the
// stored result. The existence check and the write share one transaction.
func (s *UserService) UpdateUser(ctx context.Context, id int64, details dom.User) (dom.User, error) {
	if id <= 0 {
		return dom.User{}, dom.ErrNotFound
	}
	if err := details.Validate(); err != nil {
		return dom.User{}, err
	}
	details.ID = id

	var updated dom.User
	err := s.repo.InTx(ctx, func(tx repo.UserRepo) error {
		if _, err := tx.GetByID(ctx, id); err != nil {
			return err
		}
		if err := tx.Update(ctx, details); err != nil {
			return err
		}
		u, err := tx.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload user: %w", err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return dom.User{}, err
	}
	s.invalidateCache(ctx, id)
	return updated, nil
}

// DeleteUser removes user id. The existence check and the delete share one
// transaction.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return dom.ErrNotFound
	}
	err := s.repo.InTx(ctx, func(tx repo.UserRepo) error {
		if _, err := tx.GetByID(ctx, id); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

// invalidateCache runs after the write has committed. Reads that loaded the
// old row earlier hold a stale generation and their cache writes are dropped.
func (s *UserService) invalidateCache(ctx context.Context, ids ...int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		log.Printf("user cache invalidate: %v", err)
	}
}
