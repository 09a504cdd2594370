package sso

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/luxtravel/portico/pkg/auth"
	"github.com/luxtravel/portico/pkg/httputil"
	"github.com/luxtravel/portico/pkg/middleware"
	"github.com/luxtravel/portico/pkg/observability"
)

// providerCookie correlates the login-initiation step with the callback.
// Non-authoritative: the path parameter already names the provider and the
// assertion signature is the trust anchor. A mismatch is logged, never
// enforced.
const providerCookie = "portico_sso_provider"

// cookieMaxAge bounds how long the correlation cookie survives (seconds)
const cookieMaxAge = 600

// Handlers drives the SSO flow and the provider admin surface
type Handlers struct {
	registry    *Registry
	resolver    *IdentityResolver
	tokens      *auth.TokenIssuer
	metrics     *observability.Metrics
	validate    *validator.Validate
	baseURL     string
	frontendURL string
	spEntityID  string
}

// NewHandlers creates the SSO handler set
func NewHandlers(db *sql.DB, tokens *auth.TokenIssuer, metrics *observability.Metrics, baseURL, frontendURL, spEntityID string) *Handlers {
	return &Handlers{
		registry:    NewRegistry(db),
		resolver:    NewIdentityResolver(auth.NewUserStore(db)),
		tokens:      tokens,
		metrics:     metrics,
		validate:    newValidator(),
		baseURL:     baseURL,
		frontendURL: frontendURL,
		spEntityID:  spEntityID,
	}
}

// Registry exposes the provider registry for collaborators
func (h *Handlers) Registry() *Registry {
	return h.registry
}

// RegisterRoutes registers the public SSO routes and the admin surface
func (h *Handlers) RegisterRoutes(router *mux.Router, authMW *middleware.AuthMiddleware, limiter *middleware.RateLimiter) {
	router.HandleFunc("/saml/providers", h.listProviders).Methods("GET")
	router.Handle("/saml/login/{providerId}", limiter.Handler(http.HandlerFunc(h.initiateLogin))).Methods("GET")
	router.Handle("/saml/callback/{providerId}", limiter.Handler(http.HandlerFunc(h.handleCallback))).Methods("POST")
	router.HandleFunc("/saml/metadata", h.getMetadata).Methods("GET")

	admin := router.PathPrefix("/saml/admin").Subrouter()
	admin.Use(authMW.Handler, middleware.RequireAdmin)
	admin.HandleFunc("/providers", h.adminListProviders).Methods("GET")
	admin.HandleFunc("/providers", h.adminCreateProvider).Methods("POST")
	admin.HandleFunc("/providers/{providerId}", h.adminUpdateProvider).Methods("PUT")
	admin.HandleFunc("/providers/{providerId}", h.adminDeleteProvider).Methods("DELETE")
}

// callbackURL derives the provider-specific assertion consumer endpoint
func (h *Handlers) callbackURL(providerID int64) string {
	return fmt.Sprintf("%s/saml/callback/%d", h.baseURL, providerID)
}

// listProviders handles GET /saml/providers. Public: exposes only what a
// login page needs, never certificates.
func (h *Handlers) listProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.registry.GetActiveProviders(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to list providers")
		httputil.WriteError(w, err)
		return
	}

	public := make([]PublicProvider, 0, len(providers))
	for _, p := range providers {
		public = append(public, p.Public())
	}
	httputil.WriteSuccess(w, public)
}

// initiateLogin handles GET /saml/login/{providerId}: builds the per-request
// strategy and redirects the browser to the IdP
func (h *Handlers) initiateLogin(w http.ResponseWriter, r *http.Request) {
	providerID, ok := httputil.ParsePathInt64OrError(w, r, "providerId")
	if !ok {
		return
	}
	logger := observability.FromContext(r.Context()).WithProvider(providerID)

	provider, err := h.registry.GetActiveProvider(r.Context(), providerID)
	if err != nil {
		logger.WithError(err).Warn("login initiation for unknown provider")
		httputil.WriteError(w, err)
		return
	}

	sp, err := BuildStrategy(provider, h.spEntityID, h.callbackURL(providerID))
	if err != nil {
		logger.WithError(err).Error("failed to build strategy")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to initiate login")
		return
	}

	authURL, err := sp.BuildAuthURL(uuid.NewString())
	if err != nil {
		logger.WithError(err).Error("failed to build auth URL")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to initiate login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     providerCookie,
		Value:    strconv.FormatInt(providerID, 10),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   cookieMaxAge,
	})

	if h.metrics != nil {
		h.metrics.LoginInitiationsTotal.WithLabelValues(provider.Name).Inc()
	}
	logger.Info("login initiated")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback handles POST /saml/callback/{providerId}: verifies the
// posted assertion, resolves the identity, and hands the browser back to the
// frontend with a session token. The provider record is re-fetched and the
// strategy rebuilt; no assumption that this process served the login step.
func (h *Handlers) handleCallback(w http.ResponseWriter, r *http.Request) {
	providerID, ok := httputil.ParsePathInt64OrError(w, r, "providerId")
	if !ok {
		return
	}
	logger := observability.FromContext(r.Context()).WithProvider(providerID)

	provider, err := h.registry.GetActiveProvider(r.Context(), providerID)
	if err != nil {
		// Provider vanished between login and callback: still a 404, the
		// caller here is the IdP's POST, not yet a user-facing navigation.
		logger.WithError(err).Warn("callback for unknown provider")
		httputil.WriteError(w, err)
		return
	}

	if cookie, cookieErr := r.Cookie(providerCookie); cookieErr == nil && cookie.Value != strconv.FormatInt(providerID, 10) {
		logger.WithField("cookie_provider", cookie.Value).Warn("correlation cookie names a different provider")
	}

	if err := r.ParseForm(); err != nil {
		h.failCallback(w, r, logger, provider, ReasonAuthFailed, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	encodedResponse := r.FormValue("SAMLResponse")
	if encodedResponse == "" {
		h.failCallback(w, r, logger, provider, ReasonAuthFailed, fmt.Errorf("missing SAMLResponse parameter"))
		return
	}

	sp, err := BuildStrategy(provider, h.spEntityID, h.callbackURL(providerID))
	if err != nil {
		h.failCallback(w, r, logger, provider, ReasonProcessingFailed, err)
		return
	}

	assertionInfo, err := VerifyAssertion(sp, encodedResponse)
	if err != nil {
		h.failCallback(w, r, logger, provider, ReasonAuthFailed, err)
		return
	}

	identity, err := ExtractIdentity(assertionInfo, provider.AttributeMapping)
	if err != nil {
		h.failCallback(w, r, logger, provider, ReasonNoUser, err)
		return
	}

	user, isNew, err := h.resolver.FindOrCreateUser(r.Context(), identity, provider)
	if err != nil {
		h.failCallback(w, r, logger, provider, ReasonProcessingFailed, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.failCallback(w, r, logger, provider, ReasonProcessingFailed, err)
		return
	}

	h.clearProviderCookie(w)
	if h.metrics != nil {
		h.metrics.ObserveCallback(provider.Name, "verified")
		if isNew {
			h.metrics.UsersProvisionedTotal.WithLabelValues(provider.Name).Inc()
		}
	}
	logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"is_new":  isNew,
	}).Info("callback verified")

	query := url.Values{}
	query.Set("token", token)
	if isNew {
		query.Set("new", "true")
	}
	http.Redirect(w, r, h.frontendURL+"/auth/callback?"+query.Encode(), http.StatusFound)
}

// failCallback collapses any callback failure into a redirect with a coarse
// reason code. The caller at this point is a browser mid-navigation;
// verifier internals are logged server-side only.
func (h *Handlers) failCallback(w http.ResponseWriter, r *http.Request, logger *observability.Logger, provider *IdentityProvider, reason string, err error) {
	logger.WithError(err).WithField("reason", reason).Error("callback failed")
	if h.metrics != nil {
		h.metrics.ObserveCallback(provider.Name, reason)
	}
	h.clearProviderCookie(w)
	http.Redirect(w, r, h.frontendURL+"/login?error="+reason, http.StatusFound)
}

func (h *Handlers) clearProviderCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: providerCookie, MaxAge: -1, Path: "/"})
}

// getMetadata handles GET /saml/metadata: the SP descriptor for IdP-side
// configuration. Public, no provider-specific state.
func (h *Handlers) getMetadata(w http.ResponseWriter, r *http.Request) {
	metadata, err := GenerateMetadata(h.spEntityID, h.baseURL+"/saml/callback")
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to generate metadata")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to generate metadata")
		return
	}

	if h.metrics != nil {
		h.metrics.MetadataRequestsTotal.Inc()
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(metadata)
}

// adminListProviders handles GET /saml/admin/providers: the full records,
// certificates included
func (h *Handlers) adminListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.registry.GetAllProviders(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to list providers")
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, providers)
}

// adminCreateProvider handles POST /saml/admin/providers
func (h *Handlers) adminCreateProvider(w http.ResponseWriter, r *http.Request) {
	var req CreateProviderRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := validateRequest(h.validate, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	provider := req.toProvider()
	if err := h.registry.CreateProvider(r.Context(), provider); err != nil {
		observability.FromContext(r.Context()).WithError(err).Warn("provider creation rejected")
		httputil.WriteError(w, err)
		return
	}

	observability.FromContext(r.Context()).WithProvider(provider.ID).Info("provider created")
	httputil.WriteCreated(w, provider)
}

// adminUpdateProvider handles PUT /saml/admin/providers/{providerId}
func (h *Handlers) adminUpdateProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := httputil.ParsePathInt64OrError(w, r, "providerId")
	if !ok {
		return
	}

	var req UpdateProviderRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := validateRequest(h.validate, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.registry.UpdateProvider(r.Context(), providerID, req.toUpdate()); err != nil {
		observability.FromContext(r.Context()).WithProvider(providerID).WithError(err).Warn("provider update rejected")
		httputil.WriteError(w, err)
		return
	}

	observability.FromContext(r.Context()).WithProvider(providerID).Info("provider updated")
	httputil.WriteMessage(w, "provider updated")
}

// adminDeleteProvider handles DELETE /saml/admin/providers/{providerId}
func (h *Handlers) adminDeleteProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := httputil.ParsePathInt64OrError(w, r, "providerId")
	if !ok {
		return
	}

	if err := h.registry.DeleteProvider(r.Context(), providerID); err != nil {
		observability.FromContext(r.Context()).WithProvider(providerID).WithError(err).Warn("provider deletion rejected")
		httputil.WriteError(w, err)
		return
	}

	observability.FromContext(r.Context()).WithProvider(providerID).Info("provider deleted")
	httputil.WriteMessage(w, "provider deleted")
}
