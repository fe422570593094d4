package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/tablehub/backend/internal/api/metrics"
	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/registry"
	"github.com/tablehub/backend/pkg/secret"
)

const (
	sessionCodeLength   = 6
	sessionCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	sessionCodeTTL      = 24 * time.Hour
)

// Claims is the signed assertion issued on login.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login, session codes and bearer
// token verification.
type AuthService struct {
	store     ports.TableStore
	ids       ports.IDGenerator
	codes     ports.CodeReserver
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
	random    func() (string, error)
	verify    func(hash, plain string) bool
}

// NewAuthService wires the service. codes may be nil when no shared
// reservation backend is configured.
func NewAuthService(store ports.TableStore, ids ports.IDGenerator, codes ports.CodeReserver, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		ids:       ids,
		codes:     codes,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       utcNow,
		random:    randomCode,
		verify:    secret.Verify,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = domain.DefaultUsername(email)
	}

	verr := &domain.ValidationError{}
	role := domain.RoleUser
	if in.Role != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			verr.Add("role", "must be one of SUPER-ADMIN, ADMIN, MODERATOR, USER, GUEST")
		}
		role = r
	}
	if in.Password == "" {
		verr.Add("password", "is required")
	}
	if username == "" {
		verr.Add("username", "is required")
	}

	users := registry.MustGet(registry.User)
	for field, value := range map[string]string{"email": email, "username": username} {
		if value == "" {
			continue
		}
		taken, err := s.store.Exists(ctx, users, field, value)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add(field, "already exists")
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	profile, err := s.profileFor(ctx, role)
	if err != nil {
		return nil, err
	}

	userID, err := s.ids.NewID(ctx, users)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &domain.User{
		ID:        userID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Name:      domain.DisplayName(in.FirstName, in.LastName),
		Email:     email,
		Username:  username,
		ProfileID: profile.ID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc := user.Document()
	stamp(doc, domain.AnonymousActor(), now, true)
	if err := s.store.Insert(ctx, users, doc); err != nil {
		return nil, err
	}

	if err := s.createLogin(ctx, user, in.Password); err != nil {
		// a user without credentials cannot sign in; drop it
		if derr := s.store.Delete(ctx, users, user.ID); derr != nil {
			s.logger.Error().Err(derr).Str("user_id", user.ID).Msg("rollback of user failed")
		}
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues(role.String()).Inc()
	s.logger.Info().Str("user_id", user.ID).Str("username", username).Str("role", role.String()).Msg("user registered")
	return user, nil
}

// profileFor returns the profile row for role, creating it on first use.
// A concurrent registration that inserts the same name first wins and its
// row is returned.
func (s *AuthService) profileFor(ctx context.Context, role domain.Role) (domain.Profile, error) {
	profiles := registry.MustGet(registry.Profile)
	p, found, err := s.findProfile(ctx, role)
	if err != nil || found {
		return p, err
	}

	id, err := s.ids.NewID(ctx, profiles)
	if err != nil {
		return domain.Profile{}, err
	}
	doc := domain.Document{domain.FieldID: id, "name": role.String()}
	stamp(doc, domain.AnonymousActor(), s.now(), true)
	if err := s.store.Insert(ctx, profiles, doc); err != nil {
		if !errors.Is(err, domain.ErrValidationFailed) {
			return domain.Profile{}, err
		}
		p, found, ferr := s.findProfile(ctx, role)
		if ferr != nil {
			return domain.Profile{}, ferr
		}
		if !found {
			return domain.Profile{}, err
		}
		return p, nil
	}
	return domain.Profile{ID: id, Name: role}, nil
}

func (s *AuthService) findProfile(ctx context.Context, role domain.Role) (domain.Profile, bool, error) {
	rows, err := s.store.Find(ctx, registry.MustGet(registry.Profile), domain.Query{
		Conditions: []domain.Condition{domain.Eq("name", role.String())},
		Limit:      1,
	})
	if err != nil || len(rows) == 0 {
		return domain.Profile{}, false, err
	}
	return domain.ProfileFromDocument(rows[0]), true, nil
}

func (s *AuthService) createLogin(ctx context.Context, user *domain.User, password string) error {
	token1, err := secret.Hash(user.Email + password)
	if err != nil {
		return err
	}
	token2, err := secret.Hash(user.Username + password)
	if err != nil {
		return err
	}

	logins := registry.MustGet(registry.Login)
	id, err := s.ids.NewID(ctx, logins)
	if err != nil {
		return err
	}
	doc := domain.Login{ID: id, UserID: user.ID, Token1: token1, Token2: token2, IsActive: true}.Document()
	stamp(doc, domain.Actor{UserID: user.ID}, s.now(), true)
	return s.store.Insert(ctx, logins, doc)
}

// Login exchanges an email or username plus password for a signed token.
// Every failure, whatever its cause, is domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, handle, password string) (*ports.LoginResult, error) {
	res, err := s.login(ctx, handle, password)
	switch {
	case err == nil:
		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		s.logger.Info().Str("user_id", res.User.ID).Msg("login succeeded")
		return res, nil
	case errors.Is(err, domain.ErrInvalidCredentials):
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		s.logger.Info().Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	default:
		return nil, err
	}
}

func (s *AuthService) login(ctx context.Context, handle, password string) (*ports.LoginResult, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	field := "username"
	if strings.Contains(handle, "@") {
		field, handle = "email", strings.ToLower(handle)
	}
	rows, err := s.store.Find(ctx, registry.MustGet(registry.User), domain.Query{
		Conditions: []domain.Condition{domain.Eq(field, handle)},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	// Rejections before the hash check still pay for one comparison.
	reject := func() (*ports.LoginResult, error) {
		s.verify(secret.Placeholder(), handle+password)
		return nil, domain.ErrInvalidCredentials
	}
	if len(rows) == 0 {
		return reject()
	}
	user := domain.UserFromDocument(rows[0])
	if !user.IsActive {
		return reject()
	}

	cred, err := s.activeLogin(ctx, user.ID)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return reject()
	}
	if err != nil {
		return nil, err
	}
	hash, keyed := cred.Token2, user.Username
	if field == "email" {
		hash, keyed = cred.Token1, user.Email
	}
	if !s.verify(hash, keyed+password) {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	exp := now.Add(s.tokenTTL)
	token, err := s.sign(user.ID, now, exp)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: token, ExpiresAt: exp, User: &user}, nil
}

// activeLogin returns the most recent active credential of userID.
func (s *AuthService) activeLogin(ctx context.Context, userID string) (domain.Login, error) {
	rows, err := s.store.Find(ctx, registry.MustGet(registry.Login), domain.Query{
		Conditions: []domain.Condition{
			domain.Eq("userId", userID),
			domain.Eq(domain.FieldIsActive, true),
		},
	})
	if err != nil {
		return domain.Login{}, err
	}
	if len(rows) == 0 {
		return domain.Login{}, domain.ErrInvalidCredentials
	}
	return domain.LoginFromDocument(rows[len(rows)-1]), nil
}

func (s *AuthService) sign(userID string, iat, exp time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}

// Authenticate verifies token and reloads the identity it names, so a
// deactivated user or a changed profile takes effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Actor, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid || claims.UserID == "" {
		return domain.Actor{}, domain.ErrInvalidCredentials
	}

	doc, err := s.store.Get(ctx, registry.MustGet(registry.User), claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Actor{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Actor{}, err
	}
	user := domain.UserFromDocument(doc)
	if !user.IsActive {
		return domain.Actor{}, domain.ErrInvalidCredentials
	}

	role := domain.RoleGuest
	if user.ProfileID != "" {
		p, err := s.store.Get(ctx, registry.MustGet(registry.Profile), user.ProfileID)
		switch {
		case err == nil:
			role = domain.ProfileFromDocument(p).Name
		case !errors.Is(err, domain.ErrNotFound):
			return domain.Actor{}, err
		}
	}
	return domain.Actor{UserID: user.ID, Username: user.Username, Role: role}, nil
}

// CreateSession issues a six character code unique across session rows.
func (s *AuthService) CreateSession(ctx context.Context, actor domain.Actor, action string) (*domain.Session, error) {
	if !actor.Authenticated() || !actor.Role.AtLeast(domain.RoleUser) {
		return nil, fmt.Errorf("create session: %w", domain.ErrPermissionDenied)
	}
	sessions := registry.MustGet(registry.Session)

	code, err := s.sessionCode(ctx, sessions)
	if err != nil {
		return nil, err
	}
	id, err := s.ids.NewID(ctx, sessions)
	if err != nil {
		return nil, err
	}
	now := s.now()
	doc := domain.Document{
		domain.FieldID:       id,
		"code":               code,
		"action":             strings.TrimSpace(action),
		domain.FieldIsActive: true,
	}
	stamp(doc, actor, now, true)
	if err := s.store.Insert(ctx, sessions, doc); err != nil {
		return nil, err
	}

	metrics.SessionsCreatedTotal.Inc()
	s.logger.Info().Str("session_id", id).Str("actor_id", actor.UserID).Msg("session created")
	sess := domain.SessionFromDocument(doc)
	return &sess, nil
}

func (s *AuthService) sessionCode(ctx context.Context, sessions *registry.Descriptor) (string, error) {
	for i := 0; i < MaxIDAttempts; i++ {
		code, err := s.random()
		if err != nil {
			return "", err
		}
		taken, err := s.store.Exists(ctx, sessions, "code", code)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}
		if s.codes != nil {
			ok, err := s.codes.Reserve(ctx, code, sessionCodeTTL)
			if err != nil {
				return "", err
			}
			if !ok {
				continue
			}
		}
		return code, nil
	}
	metrics.IDGenerationExhaustedTotal.WithLabelValues(string(registry.Session)).Inc()
	return "", fmt.Errorf("session code after %d attempts: %w", MaxIDAttempts, domain.ErrIDGenerationExhausted)
}

func randomCode() (string, error) {
	max := big.NewInt(int64(len(sessionCodeAlphabet)))
	b := make([]byte, sessionCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = sessionCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}
