package signin

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/mfasettings"
	"github.com/tendant/simple-auth/pkg/notification"
	"github.com/tendant/simple-auth/pkg/recoverycodes"
	"github.com/tendant/simple-auth/pkg/tokengenerator"
	"github.com/tendant/simple-auth/pkg/totp"
	"github.com/tendant/simple-auth/pkg/user"
	"github.com/tendant/simple-auth/pkg/utils"
)

// LoginStatus distinguishes a finished login from one waiting on a second
// factor.
type LoginStatus string

const (
	LoginStatusSuccess           LoginStatus = "success"
	LoginStatusTwoFactorRequired LoginStatus = "2fa_required"
)

// DeliveryOption is one masked destination a passcode can be sent to. The
// hashed value is what the client sends back to pick it; the raw address
// never leaves the server.
type DeliveryOption struct {
	HashedValue  string `json:"hashed_value"`
	DisplayValue string `json:"display_value"`
}

// TwoFactorMethod describes one way the pending login can be completed.
type TwoFactorMethod struct {
	Type            string           `json:"type"`
	DeliveryOptions []DeliveryOption `json:"delivery_options,omitempty"`
}

// LoginResult is the outcome of a login attempt. On success Tokens holds the
// access/refresh pair; on a pending second factor it holds only the temp
// token and TwoFactorMethods lists the ways to finish.
type LoginResult struct {
	Status           LoginStatus
	UserID           uuid.UUID
	Tokens           map[string]tokengenerator.TokenValue
	TwoFactorMethods []TwoFactorMethod
}

// Notifier is the slice of the notification manager the coordinator needs.
type Notifier interface {
	Send(noticeType notification.NoticeType, data notification.NotificationData) error
}

// Coordinator drives the sign-in flow: primary credential check, the
// two-factor pending state, passcode delivery and validation, and the
// anonymous recovery-code path.
type Coordinator struct {
	users    *user.UserService
	settings *mfasettings.Store
	keys     *totp.KeyProvider
	recovery *recoverycodes.Manager
	tokens   *tokengenerator.JwtService
	notifier Notifier
}

func NewCoordinator(
	users *user.UserService,
	settings *mfasettings.Store,
	keys *totp.KeyProvider,
	recovery *recoverycodes.Manager,
	tokens *tokengenerator.JwtService,
	notifier Notifier,
) *Coordinator {
	return &Coordinator{
		users:    users,
		settings: settings,
		keys:     keys,
		recovery: recovery,
		tokens:   tokens,
		notifier: notifier,
	}
}

// Login verifies the primary credential. When any MFA factor is enabled the
// result carries a temp token instead of session tokens; the login finishes
// through CompleteTwoFactor.
func (c *Coordinator) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		// same response as a wrong password, no account enumeration
		return LoginResult{}, errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")
	}

	valid, err := c.users.VerifyPassword(ctx, u.ID, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !valid {
		return LoginResult{}, errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password")
	}

	settings, err := c.settings.Get(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}

	if settings.AnyEnabled() {
		tokens, err := c.tokens.GenerateTempToken(u.ID.String(), map[string]interface{}{
			"2fa_pending": true,
			"user_id":     u.ID.String(),
		})
		if err != nil {
			return LoginResult{}, errors.Persistence(err, "failed to generate temp token")
		}
		slog.Info("Login pending second factor", "userID", u.ID)
		return LoginResult{
			Status:           LoginStatusTwoFactorRequired,
			UserID:           u.ID,
			Tokens:           tokens,
			TwoFactorMethods: twoFactorMethods(settings, u),
		}, nil
	}

	tokens, err := c.tokens.GenerateTokens(u.ID.String(), nil)
	if err != nil {
		return LoginResult{}, errors.Persistence(err, "failed to generate tokens")
	}
	slog.Info("Login succeeded", "userID", u.ID)
	return LoginResult{
		Status: LoginStatusSuccess,
		UserID: u.ID,
		Tokens: tokens,
	}, nil
}

// SendPasscode emails a one-time passcode for a pending login identified by
// its temp token.
func (c *Coordinator) SendPasscode(ctx context.Context, tempToken string) error {
	userID, err := c.pendingUserID(tempToken)
	if err != nil {
		return err
	}

	u, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	secret, err := c.keys.EnsureKey(ctx, userID)
	if err != nil {
		return err
	}
	passcode, err := totp.GeneratePasscode(secret, totp.EMAIL_PERIOD)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to generate passcode")
	}

	err = c.notifier.Send(notification.TwofaCodeNotice, notification.NotificationData{
		To:   u.Email,
		Data: map[string]string{"Passcode": passcode},
	})
	if err != nil {
		slog.Error("Failed to send passcode", "userID", userID, "err", err)
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to send passcode")
	}

	slog.Info("Sent login passcode", "userID", userID, "email", utils.MaskEmail(u.Email))
	return nil
}

// CompleteTwoFactor validates the submitted code against the chosen factor
// and, on success, issues the final access/refresh tokens.
func (c *Coordinator) CompleteTwoFactor(ctx context.Context, tempToken, code string, useAuthenticator, rememberDevice bool) (map[string]tokengenerator.TokenValue, error) {
	userID, err := c.pendingUserID(tempToken)
	if err != nil {
		return nil, err
	}

	var valid bool
	if useAuthenticator {
		valid, err = c.keys.Validate(ctx, code, userID)
	} else {
		valid, err = c.validateEmailPasscode(ctx, userID, code)
	}
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, errors.New(errors.ErrCodeTwoFAInvalid, "invalid passcode")
	}

	var extraClaims map[string]interface{}
	if rememberDevice {
		extraClaims = map[string]interface{}{"remember_device": true}
	}
	tokens, err := c.tokens.GenerateTokens(userID.String(), extraClaims)
	if err != nil {
		return nil, errors.Persistence(err, "failed to generate tokens")
	}

	slog.Info("Second factor completed", "userID", userID, "authenticator", useAuthenticator)
	return tokens, nil
}

// RedeemRecoveryCode is the anonymous fallback for users locked out of their
// second factor. A successful redemption disables the master email factor so
// the user can sign in with the password alone and re-enroll.
func (c *Coordinator) RedeemRecoveryCode(ctx context.Context, email, code string) (map[string]tokengenerator.TokenValue, error) {
	u, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := c.recovery.RedeemCode(ctx, u.ID, code); err != nil {
		return nil, err
	}

	if err := c.settings.SetEmail(ctx, u.ID, false); err != nil {
		return nil, err
	}

	tokens, err := c.tokens.GenerateTokens(u.ID.String(), nil)
	if err != nil {
		return nil, errors.Persistence(err, "failed to generate tokens")
	}

	slog.Info("Recovery code redeemed, email factor disabled", "userID", u.ID)
	return tokens, nil
}

// pendingUserID parses the temp token and returns the subject user ID.
func (c *Coordinator) pendingUserID(tempToken string) (uuid.UUID, error) {
	claims, err := c.tokens.ParseTokenClaims(tokengenerator.TEMP_TOKEN_NAME, tempToken)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.ErrCodeTokenInvalid, "invalid temp token")
	}
	if pending, _ := claims["2fa_pending"].(bool); !pending {
		return uuid.Nil, errors.New(errors.ErrCodeTokenInvalid, "token is not a pending login token")
	}
	sub, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.New(errors.ErrCodeTokenInvalid, "invalid subject in temp token")
	}
	return userID, nil
}

// validateEmailPasscode checks an emailed passcode over the longer window.
func (c *Coordinator) validateEmailPasscode(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	u, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.AuthenticatorSecret == "" {
		return false, errors.New(errors.ErrCodeInvalidState, "no passcode was sent for this login")
	}
	return totp.ValidatePasscode(u.AuthenticatorSecret, code, totp.EMAIL_PERIOD)
}

func twoFactorMethods(settings mfasettings.MfaSettings, u user.User) []TwoFactorMethod {
	var methods []TwoFactorMethod
	if settings.EmailEnabled {
		methods = append(methods, TwoFactorMethod{
			Type: "email",
			DeliveryOptions: []DeliveryOption{{
				HashedValue:  utils.HashEmail(u.Email),
				DisplayValue: utils.MaskEmail(u.Email),
			}},
		})
	}
	if settings.AuthenticatorEnabled {
		methods = append(methods, TwoFactorMethod{Type: "authenticator"})
	}
	return methods
}
