package httphandler_test

import (
	"context"
	"io"
	stdhttp "net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbored-app/unbored/internal/domain/errs"
	"github.com/unbored-app/unbored/internal/domain/user"
	"github.com/unbored-app/unbored/internal/domain/uuid"
	httphandler "github.com/unbored-app/unbored/internal/handler/http"
)

type mockProfileService struct {
	getProfileFunc func(ctx context.Context, id uuid.UUID) (*user.User, error)
	searchFunc     func(ctx context.Context, filter user.SearchFilter) ([]*user.User, error)
	updateFunc     func(ctx context.Context, id uuid.UUID, patch user.ProfilePatch) (*user.User, error)
	avatarFunc     func(ctx context.Context, id uuid.UUID) (user.Style, error)
	unlockedFunc   func(ctx context.Context, id uuid.UUID) (user.UnlockedStyle, error)
	styleFunc      func(ctx context.Context, id uuid.UUID, patch user.StylePatch) (user.Style, error)
	uploadFunc     func(ctx context.Context, id uuid.UUID, filename string, r io.Reader, size int64, contentType string) (string, error)
}

func (m *mockProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.getProfileFunc != nil {
		return m.getProfileFunc(ctx, id)
	}
	return nil, errs.ErrNotFound
}

func (m *mockProfileService) Search(ctx context.Context, filter user.SearchFilter) ([]*user.User, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockProfileService) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	patch user.ProfilePatch,
) (*user.User, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return nil, errs.ErrNotFound
}

func (m *mockProfileService) GetAvatar(ctx context.Context, id uuid.UUID) (user.Style, error) {
	if m.avatarFunc != nil {
		return m.avatarFunc(ctx, id)
	}
	return user.Style{}, errs.ErrNotFound
}

func (m *mockProfileService) GetUnlockedAvatars(ctx context.Context, id uuid.UUID) (user.UnlockedStyle, error) {
	if m.unlockedFunc != nil {
		return m.unlockedFunc(ctx, id)
	}
	return user.UnlockedStyle{}, errs.ErrNotFound
}

func (m *mockProfileService) ChangeAvatarStyle(
	ctx context.Context,
	id uuid.UUID,
	patch user.StylePatch,
) (user.Style, error) {
	if m.styleFunc != nil {
		return m.styleFunc(ctx, id, patch)
	}
	return user.Style{}, errs.ErrNotFound
}

func (m *mockProfileService) UploadProfilePicture(
	ctx context.Context,
	id uuid.UUID,
	filename string,
	r io.Reader,
	size int64,
	contentType string,
) (string, error) {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, id, filename, r, size, contentType)
	}
	return "", errs.ErrNotFound
}

func TestProfileHandler_GetSelf(t *testing.T) {
	t.Run("returns the caller's profile", func(t *testing.T) {
		e := echo.New()
		testUser := newHandlerTestUser(t, "maya")
		mockService := &mockProfileService{
			getProfileFunc: func(_ context.Context, id uuid.UUID) (*user.User, error) {
				assert.Equal(t, testUser.ID(), id)
				return testUser, nil
			},
		}
		handler := httphandler.NewProfileHandler(mockService)

		c, rec := newJSONContext(e, stdhttp.MethodGet, "/api/v1/profile", "")
		setupAuthContext(c, testUser.ID())

		require.NoError(t, handler.GetSelf(c))
		assert.Equal(t, stdhttp.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "maya")
		assert.NotContains(t, rec.Body.String(), "hash")
	})

	t.Run("missing auth", func(t *testing.T) {
		e := echo.New()
		handler := httphandler.NewProfileHandler(&mockProfileService{})

		c, rec := newJSONContext(e, stdhttp.MethodGet, "/api/v1/profile", "")

		require.NoError(t, handler.GetSelf(c))
		assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	})
}

func TestProfileHandler_GetByID(t *testing.T) {
	t.Run("malformed id reads as not found", func(t *testing.T) {
		e := echo.New()
		handler := httphandler.NewProfileHandler(&mockProfileService{})

		c, rec := newJSONContext(e, stdhttp.MethodGet, "/api/v1/profile/nope", "")
		c.SetParamNames("id")
		c.SetParamValues("not-a-uuid")
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.GetByID(c))
		assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	})
}

func TestProfileHandler_Search(t *testing.T) {
	e := echo.New()
	testUser := newHandlerTestUser(t, "maya")
	var gotFilter user.SearchFilter
	mockService := &mockProfileService{
		searchFunc: func(_ context.Context, filter user.SearchFilter) ([]*user.User, error) {
			gotFilter = filter
			return []*user.User{testUser}, nil
		},
	}
	handler := httphandler.NewProfileHandler(mockService)

	c, rec := newJSONContext(e, stdhttp.MethodGet, "/api/v1/profile/all?username=may", "")
	setupAuthContext(c, testUser.ID())

	require.NoError(t, handler.Search(c))
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "may", gotFilter.Username)
}

func TestProfileHandler_Update(t *testing.T) {
	t.Run("forwards the patch", func(t *testing.T) {
		e := echo.New()
		testUser := newHandlerTestUser(t, "maya")
		var gotPatch user.ProfilePatch
		mockService := &mockProfileService{
			updateFunc: func(_ context.Context, _ uuid.UUID, patch user.ProfilePatch) (*user.User, error) {
				gotPatch = patch
				return testUser, nil
			},
		}
		handler := httphandler.NewProfileHandler(mockService)

		body := `{"description":"hiker","preferences":["outdoor"]}`
		c, rec := newJSONContext(e, stdhttp.MethodPatch, "/api/v1/profile", body)
		setupAuthContext(c, testUser.ID())

		require.NoError(t, handler.Update(c))
		assert.Equal(t, stdhttp.StatusOK, rec.Code)
		require.NotNil(t, gotPatch.Description)
		assert.Equal(t, "hiker", *gotPatch.Description)
		assert.Equal(t, []string{"outdoor"}, gotPatch.Preferences)
	})

	t.Run("role patch is forbidden", func(t *testing.T) {
		e := echo.New()
		called := false
		mockService := &mockProfileService{
			updateFunc: func(_ context.Context, _ uuid.UUID, _ user.ProfilePatch) (*user.User, error) {
				called = true
				return nil, nil
			},
		}
		handler := httphandler.NewProfileHandler(mockService)

		body := `{"role":"admin"}`
		c, rec := newJSONContext(e, stdhttp.MethodPatch, "/api/v1/profile", body)
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.Update(c))
		assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
		assert.False(t, called)
	})
}

func TestProfileHandler_ChangeAvatar(t *testing.T) {
	t.Run("applies the style patch", func(t *testing.T) {
		e := echo.New()
		mockService := &mockProfileService{
			styleFunc: func(_ context.Context, _ uuid.UUID, patch user.StylePatch) (user.Style, error) {
				require.NotNil(t, patch.Head)
				assert.Equal(t, "3", *patch.Head)
				return user.Style{Head: "3", Body: "0", Pants: "0", Shoes: "0"}, nil
			},
		}
		handler := httphandler.NewProfileHandler(mockService)

		body := `{"head":"3"}`
		c, rec := newJSONContext(e, stdhttp.MethodPut, "/api/v1/profile/avatar", body)
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.ChangeAvatar(c))
		assert.Equal(t, stdhttp.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"head":"3"`)
	})

	t.Run("locked variant", func(t *testing.T) {
		e := echo.New()
		mockService := &mockProfileService{
			styleFunc: func(context.Context, uuid.UUID, user.StylePatch) (user.Style, error) {
				return user.Style{}, errs.ErrInvalidInput
			},
		}
		handler := httphandler.NewProfileHandler(mockService)

		body := `{"head":"7"}`
		c, rec := newJSONContext(e, stdhttp.MethodPut, "/api/v1/profile/avatar", body)
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.ChangeAvatar(c))
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})
}

func TestProfileHandler_UploadPicture(t *testing.T) {
	t.Run("stores the file and returns its name", func(t *testing.T) {
		e := echo.New()
		var gotFilename string
		var gotContent []byte
		mockService := &mockProfileService{
			uploadFunc: func(_ context.Context, _ uuid.UUID, filename string, r io.Reader, _ int64, _ string) (string, error) {
				gotFilename = filename
				data, readErr := io.ReadAll(r)
				require.NoError(t, readErr)
				gotContent = data
				return "generated-key.png", nil
			},
		}
		handler := httphandler.NewProfileHandler(mockService)

		c, rec := newMultipartContext(t, e, "/api/v1/profile/picture", "picture", "me.png", []byte("png-bytes"))
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.UploadPicture(c))
		assert.Equal(t, stdhttp.StatusCreated, rec.Code)
		assert.Equal(t, "me.png", gotFilename)
		assert.Equal(t, []byte("png-bytes"), gotContent)
		assert.Contains(t, rec.Body.String(), "generated-key.png")
	})

	t.Run("missing file field", func(t *testing.T) {
		e := echo.New()
		handler := httphandler.NewProfileHandler(&mockProfileService{})

		c, rec := newJSONContext(e, stdhttp.MethodPost, "/api/v1/profile/picture", "")
		setupAuthContext(c, uuid.NewUUID())

		require.NoError(t, handler.UploadPicture(c))
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})
}
