package http

import (
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/service"
)

// Handlers contains the HTTP handlers of the gateway
type Handlers struct {
	authService    *service.AuthService
	searchService  *service.SearchService
	paymentService *service.PaymentService
	limiter        *service.RateLimiter
}

// NewHandlers creates new handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		authService:    deps.Auth,
		searchService:  deps.Search,
		paymentService: deps.Payments,
		limiter:        deps.Limiter,
	}
}

type userProfile struct {
	ID            string    `json:"id"`
	Address       string    `json:"address"`
	Login         string    `json:"login"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newUserProfile(session core.Session) userProfile {
	address := session.Principal.String()
	return userProfile{
		ID:            address,
		Address:       address,
		Login:         session.Principal.Short(),
		Email:         address + "@nft.holder",
		Role:          "nft_holder",
		Status:        "active",
		WalletAddress: address,
		CreatedAt:     session.IssuedAt.UTC(),
	}
}

type chainView struct {
	Name            string   `json:"name"`
	Balance         *big.Int `json:"balance"`
	ContractAddress string   `json:"contractAddress"`
	HasNFT          bool     `json:"hasNFT"`
}

// ownershipView lists holding chains under "networks" and every chain under "details"
func ownershipView(o core.NFTOwnership) gin.H {
	networks := make([]chainView, 0, len(o.Chains))
	details := make([]chainView, 0, len(o.Chains))
	for _, chain := range o.Chains {
		v := chainView{Name: chain.Name, Balance: chain.Balance, ContractAddress: chain.Contract, HasNFT: chain.HasNFT}
		details = append(details, v)
		if chain.HasNFT {
			networks = append(networks, v)
		}
	}
	return gin.H{
		"hasNFT":          o.OwnsAny,
		"totalBalance":    o.TotalBalance,
		"perChainBalance": o.PerChainBalance,
		"networks":        networks,
		"details":         details,
	}
}

// Login handles the wallet login request
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		Signature     string `json:"signature"`
		Message       string `json:"message"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "reason": "invalid_body"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.WalletAddress, req.Signature, req.Message)
	if err != nil {
		var denied *core.AccessDeniedError
		switch {
		case errors.Is(err, core.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address, signature, and message are required", "reason": "missing_fields"})
		case errors.Is(err, core.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address format", "reason": "invalid_address"})
		case errors.Is(err, core.ErrInvalidMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message format", "reason": "invalid_message"})
		case errors.As(err, &denied):
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Access denied: You must own an NFT from the authorized collection to use this service",
				"reason":  "nft_required",
				"details": ownershipView(denied.Ownership),
			})
		case errors.Is(err, core.ErrNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user":       newUserProfile(result.Session),
		"token":      result.Token,
		"message":    "NFT ownership verified. Access granted!",
		"nftDetails": ownershipView(result.Ownership),
	})
}

// VerifyNFT reports ownership for an address without granting a session
func (h *Handlers) VerifyNFT(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "reason": "invalid_body"})
		return
	}
	if req.WalletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is required", "reason": "missing_fields"})
		return
	}

	ownership, err := h.authService.CheckOwnership(c.Request.Context(), req.WalletAddress)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address format", "reason": "invalid_address"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	view := ownershipView(ownership)
	view["balance"] = ownership.TotalBalance
	c.JSON(http.StatusOK, view)
}

type searchRequest struct {
	Request string `json:"request"`
	Limit   int    `json:"limit"`
	Lang    string `json:"lang"`
}

func (r searchRequest) query() core.SearchQuery {
	return core.SearchQuery{Request: r.Request, Limit: r.Limit, Lang: r.Lang}
}

// Search relays a session-gated query. Rate limit headers are already set by the middleware.
func (h *Handlers) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "reason": "invalid_body"})
		return
	}

	body, err := h.searchService.Search(c.Request.Context(), req.query())
	if err != nil {
		var rejected *core.UpstreamRejectedError
		var upstream *core.UpstreamError
		switch {
		case errors.Is(err, core.ErrQueryRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required", "reason": "missing_fields"})
		case errors.Is(err, core.ErrSearchUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable", "reason": "search_unavailable"})
		case errors.As(err, &rejected) && rejected.BadUpstreamCredentials():
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Invalid API Token",
				"message": "The OSINT API token is invalid or expired.",
				"reason":  "upstream_credentials",
			})
		case errors.As(err, &rejected):
			c.JSON(http.StatusBadRequest, gin.H{"error": "OSINT API Error: " + rejected.Code, "reason": "upstream_rejected"})
		case errors.As(err, &upstream):
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Search service unavailable", "reason": "upstream_error"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": "Failed to process search request"})
		}
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Session describes the caller's token and remaining quota without consuming it
func (h *Handlers) Session(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	quota, err := h.limiter.Status(c.Request.Context(), *session)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := gin.H{
		"class": session.Class,
		"rateLimit": gin.H{
			"limit":     quota.Limit,
			"remaining": quota.Remaining,
			"resetTime": quota.ResetTime.UnixMilli(),
		},
	}
	if session.Class == core.SessionClassNFT {
		resp["walletAddress"] = session.Principal
	} else {
		resp["userId"] = session.UserID
	}
	if !session.IssuedAt.IsZero() {
		resp["issuedAt"] = session.IssuedAt.UTC()
	}
	c.JSON(http.StatusOK, resp)
}

// PaidSearch unlocks one downstream call with an on-chain payment
func (h *Handlers) PaidSearch(c *gin.Context) {
	var req struct {
		TxHash string `json:"txHash"`
		searchRequest
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "reason": "invalid_body"})
		return
	}

	body, err := h.paymentService.PaidSearch(c.Request.Context(), req.TxHash, req.query())
	if err != nil {
		var upstream *core.UpstreamError
		var rejected *core.UpstreamRejectedError
		switch {
		case errors.Is(err, core.ErrPaymentFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "txHash and request are required", "reason": "missing_fields"})
		case errors.Is(err, core.ErrInvalidTxHash):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction hash", "reason": "invalid_tx_hash"})
		case errors.Is(err, core.ErrNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		case errors.Is(err, core.ErrPaymentNotFound):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Transaction not found or failed", "reason": "payment_not_found"})
		case errors.Is(err, core.ErrPaymentMismatch):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment not detected or amount mismatch", "reason": "payment_mismatch"})
		case errors.Is(err, core.ErrPaymentAlreadyUsed):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment already used", "reason": "payment_replayed"})
		case errors.Is(err, core.ErrReceiptUnavailable):
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Transaction receipt unavailable", "reason": "rpc_unavailable"})
		case errors.As(err, &upstream):
			_ = c.Error(err)
			msg := upstream.Message
			if msg == "" {
				msg = "External API error"
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": msg, "reason": "upstream_error"})
		case errors.As(err, &rejected):
			c.JSON(http.StatusBadGateway, gin.H{"error": "External API error: " + rejected.Code, "reason": "upstream_rejected"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		}
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Health reports liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
