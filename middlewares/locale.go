package middlewares

import (
	"golang.org/x/text/language"

	"github.com/dmitrymomot/infuse/internal"
)

type localeKey struct{}

// localeModule resolves the request language against locale.supported.
// It is AppAware so the configuration is read per request and runtime
// changes apply immediately.
type localeModule struct {
	app *internal.App
}

// Locale returns a factory for the module that negotiates the request
// language. Candidates come from the query parameter and cookie named by
// locale.param, then from Accept-Language. They are matched against
// locale.supported; site.language is the fallback and the preferred match.
// The result is stored on the request and sent as Content-Language.
func Locale() internal.MiddlewareFactory {
	return func() internal.Middleware { return &localeModule{} }
}

func (m *localeModule) InjectApp(a *internal.App) { m.app = a }

func (m *localeModule) Middleware(req *internal.Request, res *internal.Response) error {
	cfg := m.app.Config()
	fallback := cfg.GetString("site.language")

	supported := supportedTags(fallback, cfg.GetStringSlice("locale.supported"))
	lang := fallback
	if len(supported) > 0 {
		lang = supported[0].String()
		param := cfg.GetString("locale.param")
		if tag, ok := negotiate(req, param, supported); ok {
			lang = tag
		}
	}

	req.Set(localeKey{}, lang)
	if lang != "" {
		res.Header().Set("Content-Language", lang)
	}
	return nil
}

// supportedTags parses the configured languages with the fallback first,
// since language.Matcher treats the first tag as the default.
func supportedTags(fallback string, list []string) []language.Tag {
	tags := make([]language.Tag, 0, len(list)+1)
	seen := make(map[language.Tag]bool, len(list)+1)
	for _, s := range append([]string{fallback}, list...) {
		tag, err := language.Parse(s)
		if err != nil || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func negotiate(req *internal.Request, param string, supported []language.Tag) (string, bool) {
	matcher := language.NewMatcher(supported)

	if param != "" {
		explicit := internal.NewExtractor(internal.FromQuery(param), internal.FromCookie(param))
		if v, ok := explicit.Extract(req); ok {
			if tag, err := language.Parse(v); err == nil {
				if _, idx, conf := matcher.Match(tag); conf != language.No {
					return supported[idx].String(), true
				}
			}
		}
	}

	header := req.Header("Accept-Language")
	if header == "" {
		return "", false
	}
	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(prefs) == 0 {
		return "", false
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		return "", false
	}
	return supported[idx].String(), true
}

// GetLocale returns the negotiated language, or "" when the module did not run.
func GetLocale(req *internal.Request) string {
	if v, ok := req.Get(localeKey{}).(string); ok {
		return v
	}
	return ""
}
