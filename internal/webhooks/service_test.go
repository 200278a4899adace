package webhooks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

type memRegistrationRepo struct {
	registrations map[uuid.UUID]*models.WebhookRegistration
}

func newMemRegistrationRepo() *memRegistrationRepo {
	return &memRegistrationRepo{registrations: map[uuid.UUID]*models.WebhookRegistration{}}
}

func (m *memRegistrationRepo) WithTx(tx *gorm.DB) Repository { return m }

func (m *memRegistrationRepo) Create(_ context.Context, registration *models.WebhookRegistration) error {
	m.registrations[registration.ID] = registration
	return nil
}

func (m *memRegistrationRepo) List(_ context.Context) ([]models.WebhookRegistration, error) {
	out := make([]models.WebhookRegistration, 0, len(m.registrations))
	for _, r := range m.registrations {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRegistrationRepo) FindByID(_ context.Context, id uuid.UUID) (*models.WebhookRegistration, error) {
	if r, ok := m.registrations[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRegistrationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.registrations, id)
	return nil
}

func (m *memRegistrationRepo) ListActiveForEvent(_ context.Context, event enums.WebhookEvent) ([]models.WebhookRegistration, error) {
	var out []models.WebhookRegistration
	for _, r := range m.registrations {
		if !r.Active {
			continue
		}
		for _, e := range r.Events {
			if e == string(event) {
				out = append(out, *r)
				break
			}
		}
	}
	return out, nil
}

func TestRegisterGeneratesSecretWhenEmpty(t *testing.T) {
	repo := newMemRegistrationRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	registration, err := svc.Register(context.Background(), RegisterInput{
		URL:    "https://hooks.example.com/orders",
		Events: []string{"order_created", "order_updated"},
	})
	require.NoError(t, err)
	assert.Len(t, registration.Secret, 64)
	assert.True(t, registration.Active)
	assert.ElementsMatch(t, []string{"order_created", "order_updated"}, []string(registration.Events))
	assert.Len(t, repo.registrations, 1)
}

func TestRegisterKeepsProvidedSecret(t *testing.T) {
	svc, err := NewService(newMemRegistrationRepo())
	require.NoError(t, err)

	registration, err := svc.Register(context.Background(), RegisterInput{
		URL:    "https://hooks.example.com/orders",
		Events: []string{"order_created"},
		Secret: "my-shared-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "my-shared-secret", registration.Secret)
}

func TestRegisterValidation(t *testing.T) {
	svc, err := NewService(newMemRegistrationRepo())
	require.NoError(t, err)

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"relative url", RegisterInput{URL: "/hooks", Events: []string{"order_created"}}},
		{"empty url", RegisterInput{Events: []string{"order_created"}}},
		{"unknown event", RegisterInput{URL: "https://hooks.example.com", Events: []string{"order_exploded"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			require.Error(t, err)
			coded := pkgerrors.As(err)
			require.NotNil(t, coded)
			assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
		})
	}
}

func TestDeleteRegistration(t *testing.T) {
	repo := newMemRegistrationRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	registration, err := svc.Register(context.Background(), RegisterInput{
		URL:    "https://hooks.example.com",
		Events: []string{"order_created"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), registration.ID))
	assert.Empty(t, repo.registrations)

	err = svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}
