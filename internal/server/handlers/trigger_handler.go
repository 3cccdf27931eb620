package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/workflow"
	warehouseclient "github.com/mamadbah2/caskwarehouse/pkg/clients/warehouse"
)

// SignatureHeader carries the 65-byte ECDSA signature over keccak256(body).
const SignatureHeader = "X-Signature"

const maxTriggerBody = 1 << 20

var errUnauthorizedSigner = errors.New("signer is not authorized")

// WorkflowRunner executes a named workflow.
type WorkflowRunner interface {
	Run(ctx context.Context, name string, trigger workflow.Trigger) (workflow.Result, error)
}

// TriggerHandler turns signed HTTP requests into lifecycle-webhook runs.
type TriggerHandler struct {
	runner     WorkflowRunner
	authorized []common.Address
	logger     *zap.Logger
}

// NewTriggerHandler constructs the handler. An empty authorizedKeys list
// accepts unsigned requests.
func NewTriggerHandler(runner WorkflowRunner, authorizedKeys []string, logger *zap.Logger) *TriggerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	authorized := make([]common.Address, 0, len(authorizedKeys))
	for _, key := range authorizedKeys {
		authorized = append(authorized, common.HexToAddress(key))
	}
	return &TriggerHandler{runner: runner, authorized: authorized, logger: logger}
}

// Lifecycle runs the lifecycle-webhook workflow with the request body as payload.
func (h *TriggerHandler) Lifecycle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTriggerBody))
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := h.verify(body, c.GetHeader(SignatureHeader)); err != nil {
		h.logger.Warn("rejected trigger", zap.String("client_ip", c.ClientIP()), zap.Error(err))
		respondError(c, http.StatusUnauthorized, "unauthorized trigger")
		return
	}

	result, err := h.runner.Run(c.Request.Context(), workflow.NameLifecycleWebhook, workflow.Trigger{
		Source:  workflow.SourceHTTP,
		Payload: body,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, workflow.ErrInvalidTrigger):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, warehouseclient.ErrNotFound):
		respondError(c, http.StatusNotFound, "cask not found")
	case errors.Is(err, warehouseclient.ErrRejected):
		respondError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "workflow run failed")
	}
}

func (h *TriggerHandler) verify(body []byte, signature string) error {
	if len(h.authorized) == 0 {
		return nil
	}
	signer, err := RecoverSigner(body, signature)
	if err != nil {
		return err
	}
	for _, addr := range h.authorized {
		if addr == signer {
			return nil
		}
	}
	return errUnauthorizedSigner
}

// RecoverSigner returns the address that produced signature over keccak256(body).
// Recovery ids 27 and 28 are accepted alongside 0 and 1.
func RecoverSigner(body []byte, signature string) (common.Address, error) {
	if strings.TrimSpace(signature) == "" {
		return common.Address{}, errors.New("missing signature")
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, errors.New("signature is not 0x hex")
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.New("signature must be 65 bytes")
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(crypto.Keccak256(body), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
