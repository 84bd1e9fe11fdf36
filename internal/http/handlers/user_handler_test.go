package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
	"github.com/JoaoPizoli/SatMaza/internal/services"
)

func TestCreateUser_Created(t *testing.T) {
	h := New(stubRequestSvc{}, nil, stubUserSvc{
		create: func(_ context.Context, in services.CreateUserInput) (*domain.User, error) {
			return &domain.User{ID: 3, Code: in.Code, Role: in.Role}, nil
		},
	}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/users", services.CreateUserInput{
		Code: "1234", Password: "s3cret", Role: domain.RoleRepresentative,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Code != "1234" || got.Role != domain.RoleRepresentative {
		t.Fatalf("user = %+v", got)
	}
}

func TestCreateUser_DuplicateMapsToConflict(t *testing.T) {
	h := New(stubRequestSvc{}, nil, stubUserSvc{
		create: func(context.Context, services.CreateUserInput) (*domain.User, error) {
			return nil, services.ErrDuplicateUser
		},
	}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/users", services.CreateUserInput{Code: "1234", Password: "x"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeError(t, w); e.Code != ErrCodeConflict {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestGetUser_RejectsNonNumericID(t *testing.T) {
	h := New(stubRequestSvc{}, nil, stubUserSvc{}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodGet, "/users/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	h := New(stubRequestSvc{}, nil, stubUserSvc{
		update: func(context.Context, int64, services.UpdateUserInput) (*domain.User, error) {
			return nil, services.ErrUserNotFound
		},
	}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPatch, "/users/42", map[string]string{"name": "New Name"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCompleteRegistration_PassesFields(t *testing.T) {
	var gotID int64
	var gotName, gotEmail string
	var gotPassword *string
	h := New(stubRequestSvc{}, nil, stubUserSvc{
		completeReg: func(_ context.Context, id int64, name, email string, password *string) (*domain.User, error) {
			gotID, gotName, gotEmail, gotPassword = id, name, email, password
			return &domain.User{ID: id, Name: name, PasswordChanged: true}, nil
		},
	}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/users/7/registration", CompleteRegistrationRequest{
		Name: "Ana Souza", Email: "Ana@Maza.com.br",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotID != 7 || gotName != "Ana Souza" || gotEmail != "Ana@Maza.com.br" {
		t.Fatalf("got id=%d name=%q email=%q", gotID, gotName, gotEmail)
	}
	if gotPassword != nil {
		t.Fatalf("password = %v, want nil (not supplied)", *gotPassword)
	}
}

func TestCompleteRegistration_RequiresNameAndEmail(t *testing.T) {
	h := New(stubRequestSvc{}, nil, stubUserSvc{}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/users/7/registration", map[string]string{"name": "Ana"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListRepresentatives_OK(t *testing.T) {
	h := New(stubRequestSvc{}, nil, stubUserSvc{
		listReps: func(context.Context) ([]domain.User, error) {
			return []domain.User{
				{ID: 1, Code: "1001", Role: domain.RoleRepresentative},
				{ID: 2, Code: "1002", Role: domain.RoleRepresentative},
			}, nil
		},
	}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodGet, "/users/representatives", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got []domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
}

func TestDeleteUser_NoContent(t *testing.T) {
	h := New(stubRequestSvc{}, nil, stubUserSvc{
		delete: func(context.Context, int64) error { return nil },
	}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodDelete, "/users/5", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLogin_ReturnsProfile(t *testing.T) {
	h := New(stubRequestSvc{}, nil, stubUserSvc{
		authenticate: func(_ context.Context, code, password string) (*domain.User, error) {
			if code != "1001" || password != "s3cret" {
				return nil, services.ErrInvalidCredentials
			}
			return &domain.User{ID: 1, Code: code, Role: domain.RoleRepresentative}, nil
		},
	}, nil)
	r := newTestRouter(h)

	w := doJSON(t, r, http.MethodPost, "/auth/login", LoginRequest{Code: "1001", Password: "s3cret"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Code != "1001" {
		t.Fatalf("code = %q", got.Code)
	}
	if w.Body.String() == "" || got.PasswordHash != "" {
		t.Fatalf("password hash must never serialize")
	}
}
