package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/proliferam/teste-mercado-pago/internal/purchase"
	"github.com/proliferam/teste-mercado-pago/internal/ui"
)

// Interaction is the gateway-relayed chat interaction: a pressed button, a
// select-menu choice or a submitted modal.
type Interaction struct {
	UserID    string            `json:"user_id"`
	Username  string            `json:"username"`
	ChannelID string            `json:"channel_id"`
	CustomID  string            `json:"custom_id"`
	Values    []string          `json:"values,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// InteractionReply tells the gateway how to answer the interaction: an
// ephemeral note, a modal to open, or nothing (the anchored screen already
// changed).
type InteractionReply struct {
	Ephemeral string          `json:"ephemeral,omitempty"`
	Modal     json.RawMessage `json:"modal,omitempty"`
}

const staleActionNotice = "Essa ação não está mais disponível. A tela foi atualizada, confira a thread."
const noSessionNotice = "❌ Não encontrei os dados da sua compra. Por favor, inicie novamente."

// HandleInteraction maps the component id onto a purchase event and runs it
// through the state machine.
func (h *Handler) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	var in Interaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Error(w, http.StatusBadRequest, "invalid interaction payload")
		return
	}
	if in.UserID == "" || in.CustomID == "" {
		Error(w, http.StatusBadRequest, "user_id and custom_id are required")
		return
	}

	// Two components open forms without touching the session.
	switch in.CustomID {
	case ui.IDContinue:
		JSON(w, http.StatusOK, InteractionReply{Modal: json.RawMessage(h.renderer.IdentityForm())})
		return
	case ui.IDManualOpen:
		JSON(w, http.StatusOK, InteractionReply{Modal: json.RawMessage(h.renderer.ManualItemForm())})
		return
	}

	ev, err := eventFor(in)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ack, err := h.machine.Dispatch(r.Context(), in.UserID, ev)
	if err != nil {
		h.replyError(w, in, err)
		return
	}

	reply := InteractionReply{}
	if ack != nil {
		reply.Ephemeral = ack.Ephemeral
		if len(ack.Modal) > 0 {
			reply.Modal = json.RawMessage(ack.Modal)
		}
	}
	JSON(w, http.StatusOK, reply)
}

func eventFor(in Interaction) (purchase.Event, error) {
	switch in.CustomID {
	case ui.IDStartPurchase:
		return purchase.StartPurchase{ChannelID: in.ChannelID, Username: in.Username}, nil
	case ui.IDIdentityModal:
		return purchase.IdentitySubmitted{
			Username:  in.Fields[ui.IDFieldUsername],
			RawAmount: in.Fields[ui.IDFieldAmount],
		}, nil
	case ui.IDConfirmYes:
		return purchase.ConfirmYes, nil
	case ui.IDConfirmNo:
		return purchase.ConfirmNo, nil
	case ui.IDPreListingGo:
		return purchase.PreListingContinue, nil
	case ui.IDSelectItems:
		return purchase.ItemsSelected{IDs: in.Values}, nil
	case ui.IDBackToIdentity:
		return purchase.BackToIdentity, nil
	case ui.IDConfirmSelection:
		return purchase.ConfirmSelection, nil
	case ui.IDForceConfirm:
		return purchase.ForceConfirm, nil
	case ui.IDManualModal:
		return purchase.ManualItemSubmitted{Raw: in.Fields[ui.IDFieldManualItem]}, nil
	case ui.IDBackToSelection:
		return purchase.BackToSelection, nil
	case ui.IDBackToSummary:
		return purchase.ShowSummary, nil
	case ui.IDGeneratePayment:
		return purchase.GeneratePayment, nil
	case ui.IDCheckStatus:
		return purchase.CheckStatus, nil
	case ui.IDComplete:
		return purchase.Complete, nil
	case ui.IDCancel:
		return purchase.CancelRequested, nil
	case ui.IDCancelConfirmed:
		return purchase.CancelConfirmed, nil
	case ui.IDCancelAbort:
		return purchase.CancelAborted, nil
	}
	return nil, errors.New("unknown component id: " + in.CustomID)
}

// replyError turns machine errors into interaction replies. Flow errors and
// races are user-visible notes, never 5xx: the gateway must always be able
// to answer the interaction.
func (h *Handler) replyError(w http.ResponseWriter, in Interaction, err error) {
	var flowErr *purchase.FlowError
	switch {
	case errors.As(err, &flowErr):
		if flowErr.Kind == purchase.KindUnavailable {
			slog.Error("flow action failed upstream", "user_id", in.UserID, "custom_id", in.CustomID, "error", err)
		}
		JSON(w, http.StatusOK, InteractionReply{Ephemeral: flowErr.Msg})
	case errors.Is(err, purchase.ErrNoSession):
		JSON(w, http.StatusOK, InteractionReply{Ephemeral: noSessionNotice})
	case errors.Is(err, purchase.ErrStaleTransition):
		slog.Info("stale interaction discarded", "user_id", in.UserID, "custom_id", in.CustomID, "reason", err)
		JSON(w, http.StatusOK, InteractionReply{Ephemeral: staleActionNotice})
	default:
		slog.Error("interaction failed", "user_id", in.UserID, "custom_id", in.CustomID, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
