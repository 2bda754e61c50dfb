package handler

import (
	"net/http"

	"lionix-portal/internal/i18n"

	"github.com/labstack/echo/v4"
)

// LanguageCookie stores the visitor's chosen display language. It is the one
// piece of client-side preference state the portal persists; it is not
// authentication-related.
const LanguageCookie = "lionix_lang"

// I18nHandler serves translation catalogs and the language preference.
type I18nHandler struct {
	resolver *i18n.Resolver
}

// NewI18nHandler creates a new i18n handler.
func NewI18nHandler(resolver *i18n.Resolver) *I18nHandler {
	return &I18nHandler{resolver: resolver}
}

// Translations returns the message catalog for a language.
func (h *I18nHandler) Translations(c echo.Context) error {
	lang := c.Param("lang")
	return c.JSON(http.StatusOK, map[string]any{
		"language": h.resolver.Match(lang).String(),
		"rtl":      h.resolver.IsRTL(lang),
		"messages": h.resolver.Catalog(lang),
	})
}

type languageRequest struct {
	Language string `json:"language"`
}

// SetLanguage persists the chosen display language in the preference cookie.
func (h *I18nHandler) SetLanguage(c echo.Context) error {
	var req languageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	matched := h.resolver.Match(req.Language).String()
	c.SetCookie(&http.Cookie{
		Name:     LanguageCookie,
		Value:    matched,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]string{"language": matched})
}
