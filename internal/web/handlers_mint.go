package web

import (
	"context"
	"net/http"
	"sort"

	"github.com/JonMunkholm/PayrollDash/internal/core"
	"github.com/JonMunkholm/PayrollDash/internal/web/templates"
)

type mintCall func(ctx context.Context, ref core.PayrollRef) (core.MintState, error)

// mintHandler runs one mint operation for the payroll in the route.
// HTMX callers get a notice and every open table is told to reload.
func (s *Server) mintHandler(call mintCall, notice func(core.MintState) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := call(r.Context(), payrollRef(r))
		if err != nil {
			s.fail(w, r, err)
			return
		}

		if isHTMX(r) {
			w.Header().Set("HX-Trigger", templates.RefreshEvent)
			render(w, r, templates.Notice(state.Status.Tone(), notice(state)))
			return
		}
		state.Raw = nil
		writeJSON(w, state)
	}
}

func (s *Server) handleQueueMint(w http.ResponseWriter, r *http.Request) {
	s.mintHandler(s.service.QueueMint, func(st core.MintState) string {
		return "NFT basımı kuyruğa alındı: " + st.Status.Label()
	})(w, r)
}

func (s *Server) handleRetryMint(w http.ResponseWriter, r *http.Request) {
	s.mintHandler(s.service.RetryMint, func(st core.MintState) string {
		return "NFT basımı yeniden denenecek: " + st.Status.Label()
	})(w, r)
}

func (s *Server) handleMintStatus(w http.ResponseWriter, r *http.Request) {
	s.mintHandler(s.service.MintStatusOf, describeMint)(w, r)
}

func describeMint(st core.MintState) string {
	msg := "NFT durumu: " + st.Status.Label()
	if st.TokenID != "" {
		msg += " · Token #" + st.TokenID
	}
	if st.TxHash != "" {
		msg += " · İşlem " + st.TxHash
	}
	if st.Error != "" {
		msg += " · " + st.Error
	}
	return msg
}

// handleDecrypt returns the decrypted payroll. The response must never be
// cached by a proxy or the browser.
func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	ref := payrollRef(r)
	doc, err := s.service.DecryptPayroll(r.Context(), ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	if isHTMX(r) {
		keys := make([]string, 0, len(doc))
		for k := range doc {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		w.Header().Set("HX-Retarget", "#details")
		w.Header().Set("HX-Reswap", "outerHTML")
		render(w, r, templates.Document("Bordro "+ref.PayrollID, doc, keys))
		return
	}
	writeJSON(w, doc)
}
