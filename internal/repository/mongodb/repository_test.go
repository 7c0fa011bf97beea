package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/briquette/internal/config"
	"github.com/mamadbah2/briquette/internal/domain/models"
)

func TestRepositoryWithoutURLIsUnavailable(t *testing.T) {
	repo := NewMongoDBRepository(context.Background(), config.MongoDBConfig{DBName: "test", Timeout: time.Second}, nil)

	assert.False(t, repo.Available())

	_, err := repo.Create(context.Background(), models.CollectionSale, models.Sale{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	docs, err := repo.List(context.Background(), models.CollectionSale, nil, DefaultListLimit)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, docs)

	status := repo.Status(context.Background())
	assert.Equal(t, Status{}, status)
	assert.NoError(t, repo.Close(context.Background()))
}

func TestRepositoryWithInvalidURLIsUnavailable(t *testing.T) {
	repo := NewMongoDBRepository(context.Background(), config.MongoDBConfig{
		URI:     "not-a-mongo-uri",
		DBName:  "test",
		Timeout: time.Second,
	}, nil)

	assert.False(t, repo.Available())
	status := repo.Status(context.Background())
	assert.True(t, status.URLConfigured)
	assert.False(t, status.Available)
}

func TestNewUnavailable(t *testing.T) {
	repo := NewUnavailable(nil)
	_, err := repo.Create(context.Background(), models.CollectionExpense, models.Expense{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestParseReadPolicy(t *testing.T) {
	p, err := ParseReadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, BestEffort, p)

	p, err = ParseReadPolicy(config.ReadPolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, Strict, p)

	_, err = ParseReadPolicy("sometimes")
	assert.Error(t, err)
}

func TestStoreWriteErrorUnwraps(t *testing.T) {
	cause := errors.New("duplicate key")
	err := error(&StoreWriteError{Collection: models.CollectionSale, Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "sale")

	var writeErr *StoreWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, models.CollectionSale, writeErr.Collection)
}

func TestReadFailedHonoursPolicy(t *testing.T) {
	cause := errors.New("cursor killed")

	lenient := &MongoDBRepository{readPolicy: BestEffort, logger: NewUnavailable(nil).logger}
	docs, err := lenient.readFailed(models.CollectionSale, cause)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NotNil(t, docs)

	strict := &MongoDBRepository{readPolicy: Strict, logger: NewUnavailable(nil).logger}
	_, err = strict.readFailed(models.CollectionSale, cause)
	assert.ErrorIs(t, err, cause)
}
