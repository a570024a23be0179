package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/domain"
	"github.com/jhoicas/pvp-api/pkg/jwt"
	"github.com/jhoicas/pvp-api/pkg/logger"
)

// Roles del personal.
const (
	RoleAdmin = "admin" // puede cambiar márgenes por sección
	RoleStaff = "staff"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// StaffAccount cuenta única del back-office (usuario + hash bcrypt).
type StaffAccount struct {
	User         string
	PasswordHash string
	Role         string
}

// AuthUseCase login del personal contra la cuenta configurada.
type AuthUseCase struct {
	account StaffAccount
	jwtCfg  JWTConfig
	log     *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth. Sin rol se asume staff.
func NewAuthUseCase(account StaffAccount, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	if account.Role == "" {
		account.Role = RoleStaff
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{account: account, jwtCfg: jwtCfg, log: log.Component("auth")}
}

// Login verifica usuario y password y devuelve un token firmado.
// Cualquier fallo de credenciales responde domain.ErrUnauthorized sin detallar la causa.
func (uc *AuthUseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	user := strings.TrimSpace(in.User)
	if user == "" || in.Password == "" || uc.account.PasswordHash == "" {
		return nil, domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(uc.account.User)) != 1 {
		uc.log.Warn().Str("user", user).Msg("login rechazado: usuario desconocido")
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(uc.account.PasswordHash), []byte(in.Password)); err != nil {
		uc.log.Warn().Str("user", user).Msg("login rechazado: password incorrecto")
		return nil, domain.ErrUnauthorized
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.account.User, uc.account.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user", user).Str("role", uc.account.Role).Msg("login correcto")
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
		User:      uc.account.User,
		Role:      uc.account.Role,
	}, nil
}
