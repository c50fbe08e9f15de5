package handlers

import (
	"encoding/xml"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	saml2 "github.com/crewjam/saml"

	samlauth "github.com/ferndale-labs/gatehouse/internal/auth/saml"
	"github.com/ferndale-labs/gatehouse/internal/domain/services"
	"github.com/ferndale-labs/gatehouse/internal/pkg/metrics"
	"github.com/ferndale-labs/gatehouse/web/internal/session"
)

// loginPageData feeds the login template
type loginPageData struct {
	pageData
	ReturnURL string
}

// Login renders the sign-in page
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.sessions.IsSignedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := loginPageData{
		pageData:  h.newPageData(r),
		ReturnURL: r.URL.Query().Get("return_url"),
	}
	h.renderPage(w, "login.html", data)
}

// SAMLLogin starts the federated sign-in: it issues an AuthnRequest and
// redirects the browser to the identity provider
func (h *Handler) SAMLLogin(w http.ResponseWriter, r *http.Request) {
	returnURL := sanitizeReturnURL(r.FormValue("return_url"))
	if returnURL != "" {
		if err := h.sessions.SetReturnURL(r, w, returnURL); err != nil {
			h.log.Warn("failed to stash return url", slog.Any("error", err))
		}
	}

	binding := saml2.HTTPRedirectBinding
	authReq, err := h.sp.MakeAuthenticationRequest(
		h.sp.GetSSOBindingLocation(binding), binding, saml2.HTTPPostBinding)
	if err != nil {
		h.log.Error("failed to build authentication request", slog.Any("error", err))
		h.renderError(w, r, http.StatusInternalServerError,
			"Sign-in unavailable", "Could not contact the identity provider.")
		return
	}

	if err := h.sessions.SetRequestID(r, w, authReq.ID); err != nil {
		h.log.Warn("failed to record request id", slog.Any("error", err))
	}

	redirectURL, err := authReq.Redirect("", h.sp)
	if err != nil {
		h.log.Error("failed to sign redirect", slog.Any("error", err))
		h.renderError(w, r, http.StatusInternalServerError,
			"Sign-in unavailable", "Could not contact the identity provider.")
		return
	}

	http.Redirect(w, r, redirectURL.String(), http.StatusFound)
}

// ACS consumes the identity provider's response: the assertion is
// verified, the asserted identity provisioned, and the session
// established
func (h *Handler) ACS(w http.ResponseWriter, r *http.Request) {
	var possibleIDs []string
	if id := h.sessions.TakeRequestID(r, w); id != "" {
		possibleIDs = append(possibleIDs, id)
	}

	assertion, err := h.sp.ParseResponse(r, possibleIDs)
	if err != nil {
		metrics.RecordSignIn(h.provider, metrics.OutcomeRejected)
		var ire *saml2.InvalidResponseError
		if errors.As(err, &ire) {
			h.log.Warn("rejected assertion",
				slog.Any("error", ire.PrivateErr),
				slog.String("response", ire.Response))
		} else {
			h.log.Warn("rejected assertion", slog.Any("error", err))
		}
		h.renderError(w, r, http.StatusForbidden,
			"Sign-in failed", "The identity provider response could not be verified.")
		return
	}

	profile := samlauth.ExtractProfile(assertion)
	returnURL := h.sessions.TakeReturnURL(r, w)

	establisher := session.NewEstablisher(h.sessions, h.memberships, r, w)
	result, err := h.provisioner.Provision(r.Context(),
		services.FederatedProfile{
			ExternalID: profile.ExternalID,
			Email:      profile.Email,
			FirstName:  profile.FirstName,
			LastName:   profile.LastName,
			SessionID:  profile.SessionID,
		},
		services.SignInProperties{
			Provider:  h.provider,
			ReturnURL: returnURL,
		},
		establisher)
	if err != nil {
		if errors.Is(err, services.ErrUserNotEnabled) {
			metrics.RecordSignIn(h.provider, metrics.OutcomeDisabled)
			h.renderPage(w, "pending.html", h.newPageData(r))
			return
		}
		metrics.RecordSignIn(h.provider, metrics.OutcomeError)
		h.log.Error("provisioning failed", slog.Any("error", err))
		h.renderError(w, r, http.StatusInternalServerError,
			"Sign-in failed", "Your account could not be signed in.")
		return
	}

	if result.Created {
		metrics.RecordSignIn(h.provider, metrics.OutcomeCreated)
	} else {
		metrics.RecordSignIn(h.provider, metrics.OutcomeReturning)
	}
	h.log.Info("user signed in",
		slog.String("username", result.User.Username),
		slog.Bool("created", result.Created))

	if returnURL == "" {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

// Metadata serves this service provider's SAML descriptor
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/samlmetadata+xml")
	if err := xml.NewEncoder(w).Encode(h.sp.Metadata()); err != nil {
		h.log.Error("failed to encode metadata", slog.Any("error", err))
	}
}

// Logout clears the local session. Federated logout at the identity
// provider is not initiated.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r, w); err != nil {
		h.log.Warn("failed to clear session", slog.Any("error", err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Claims shows the signed-in user their stored claims
func (h *Handler) Claims(w http.ResponseWriter, r *http.Request) {
	data := struct {
		pageData
		Claims interface{}
	}{pageData: h.newPageData(r)}

	if data.Principal == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	claims, err := h.directory.UserClaims(r.Context(), data.Principal.UserID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	data.Claims = claims

	h.renderPage(w, "claims.html", data)
}

// sanitizeReturnURL only accepts local absolute paths, dropping anything
// that could redirect off-site after login
func sanitizeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	return raw
}
