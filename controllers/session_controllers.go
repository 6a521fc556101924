package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeremiapane/fantasteak-pos/services"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// SessionController is the shared-secret gate in front of the cashier and
// admin screens. It keeps only bcrypt hashes of the passcodes.
type SessionController struct {
	hashes  map[services.Role][]byte
	secret  []byte
	ttl     time.Duration
	appRole services.Role
}

type SessionConfig struct {
	CashierPasscode string
	AdminPasscode   string
	Secret          []byte
	TTL             time.Duration
	// AppRole, when set, is the only screen this console unlocks.
	AppRole services.Role
}

func NewSessionController(cfg SessionConfig) (*SessionController, error) {
	hashes := make(map[services.Role][]byte, 2)
	for role, passcode := range map[services.Role]string{
		services.RoleCashier: cfg.CashierPasscode,
		services.RoleAdmin:   cfg.AdminPasscode,
	} {
		hashed, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashes[role] = hashed
	}
	return &SessionController{
		hashes:  hashes,
		secret:  cfg.Secret,
		ttl:     cfg.TTL,
		appRole: cfg.AppRole,
	}, nil
}

// Unlock -> POST /session {view, passcode}
func (sc *SessionController) Unlock(c *gin.Context) {
	var input struct {
		View     string `json:"view" binding:"required"`
		Passcode string `json:"passcode"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	role := services.Role(strings.ToLower(strings.TrimSpace(input.View)))
	if !role.Valid() {
		utils.RespondMessage(c, http.StatusBadRequest, "Tampilan tidak dikenal")
		return
	}
	if sc.appRole != "" && role != sc.appRole {
		utils.RespondMessage(c, http.StatusForbidden, "Konsol ini hanya untuk tampilan "+string(sc.appRole))
		return
	}

	if hashed, guarded := sc.hashes[role]; guarded {
		if err := bcrypt.CompareHashAndPassword(hashed, []byte(input.Passcode)); err != nil {
			utils.InfoLogger.WithField("role", role).Warn("Wrong passcode at screen gate")
			utils.RespondMessage(c, http.StatusUnauthorized, "Password Salah!")
			return
		}
	}

	token, err := utils.GenerateSessionToken(sc.secret, string(role), sc.ttl)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.WithField("role", role).Info("Screen unlocked")
	utils.RespondJSON(c, http.StatusOK, "Session opened", gin.H{
		"token":      token,
		"role":       role,
		"expires_at": time.Now().Add(sc.ttl),
	})
}
