// internal/handler/ipn_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"airtel-ipn-service/internal/domain"
	"airtel-ipn-service/internal/repository"
	"airtel-ipn-service/internal/usecase"

	"go.uber.org/zap"
)

type IPNHandler struct {
	validationUC *usecase.ValidationUsecase
	processingUC *usecase.ProcessingUsecase
	logger       *zap.Logger
}

func NewIPNHandler(validationUC *usecase.ValidationUsecase, processingUC *usecase.ProcessingUsecase, logger *zap.Logger) *IPNHandler {
	return &IPNHandler{
		validationUC: validationUC,
		processingUC: processingUC,
		logger:       logger,
	}
}

// HandleValidate answers the switch's pre-funding validation call. Business
// rejection is a payload field; HTTP status is 200 either way.
func (h *IPNHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read validation body", zap.Error(err))
		sendError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	h.logger.Info("received validation request",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("payload_size", len(body)))

	var req *domain.ValidationRequest
	wantsXML := isXMLBody(body)
	if wantsXML {
		data, err := parseFlatXML(body)
		if err != nil {
			h.logger.Error("invalid XML in validation request", zap.Error(err))
			sendAirtelXML(w, "FAILED", "invalid XML format")
			return
		}
		req = validationRequestFromAirtel(data)
	} else {
		req = &domain.ValidationRequest{}
		if err := json.Unmarshal(body, req); err != nil {
			h.logger.Error("invalid JSON in validation request", zap.Error(err))
			sendError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	verdict, err := h.validationUC.ValidateIPN(ctx, req, body)
	if err != nil {
		h.logger.Error("validation failed",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
		if wantsXML {
			sendAirtelXML(w, "FAILED", "internal error")
			return
		}
		sendError(w, http.StatusInternalServerError, "failed to validate transaction", err)
		return
	}

	if wantsXML {
		if verdict.Accepted {
			sendAirtelXML(w, "SUCCESS", "transaction validated successfully")
		} else {
			sendAirtelXML(w, "FAILED", verdict.ReasonCode)
		}
		return
	}
	sendJSON(w, http.StatusOK, verdict)
}

// HandleProcess records the finalized transaction and acknowledges exactly
// once per transactionId.
func (h *IPNHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read processing body", zap.Error(err))
		sendError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	h.logger.Info("received processing request",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("payload_size", len(body)))

	var req *domain.ProcessingRequest
	wantsXML := isXMLBody(body)
	if wantsXML {
		data, err := parseFlatXML(body)
		if err != nil {
			h.logger.Error("invalid XML in processing request", zap.Error(err))
			sendAirtelXML(w, "FAILED", "invalid XML format")
			return
		}
		req = processingRequestFromAirtel(data)
	} else {
		req = &domain.ProcessingRequest{}
		if err := json.Unmarshal(body, req); err != nil {
			h.logger.Error("invalid JSON in processing request", zap.Error(err))
			sendError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	if err := req.Validate(); err != nil {
		h.logger.Error("processing request failed field validation",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
		if wantsXML {
			sendAirtelXML(w, "FAILED", err.Error())
			return
		}
		sendError(w, http.StatusBadRequest, "invalid processing request", err)
		return
	}

	ack, err := h.processingUC.ProcessIPN(ctx, req, body)
	if err != nil {
		h.logger.Error("processing failed",
			zap.String("transaction_id", req.TransactionID),
			zap.Error(err))
		if wantsXML {
			sendAirtelXML(w, "FAILED", "processing failed")
			return
		}
		switch {
		case errors.Is(err, repository.ErrInvalidTransition):
			sendError(w, http.StatusConflict, "transaction not in a processable state", err)
		case errors.Is(err, repository.ErrNotFound):
			sendError(w, http.StatusNotFound, "transaction not found", err)
		default:
			sendError(w, http.StatusInternalServerError, "failed to process transaction", err)
		}
		return
	}

	if wantsXML {
		if ack.Status == domain.StatusProcessed {
			sendAirtelXML(w, "SUCCESS", "transaction processed successfully")
		} else {
			sendAirtelXML(w, "FAILED", "transaction processing failed")
		}
		return
	}
	sendJSON(w, http.StatusOK, ack)
}
