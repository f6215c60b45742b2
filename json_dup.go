package lottieschema

import (
	"errors"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/lottieschema/i18n"
	eng "github.com/reoring/lottieschema/internal/engine"
)

// DetectDuplicateKeys reports every duplicated object key of a JSON document
// at onDup severity. Ignore reports nothing.
func DetectDuplicateKeys(data []byte, onDup Severity) (Findings, error) {
	if onDup == Ignore {
		return nil, nil
	}
	_, si, err := eng.Decode(data, eng.Options{OnDuplicate: toEngineDup(onDup)})
	if err != nil {
		return nil, err
	}
	return fromEngineIssues(si, onDup, ""), nil
}

// decodeDocument parses raw into a generic value. fatal is non-empty when the
// document cannot be validated at all; dups holds duplicate key findings.
func decodeDocument(raw []byte, onDup Severity, maxDepth int, lang string) (doc any, dups, fatal Findings) {
	if onDup == Ignore && maxDepth <= 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, nil, Findings{parseErrorFinding(err, lang)}
		}
		return doc, nil, nil
	}
	doc, si, err := eng.Decode(raw, eng.Options{OnDuplicate: toEngineDup(onDup), MaxDepth: maxDepth})
	var de *eng.DepthError
	switch {
	case errors.As(err, &de):
		params := map[string]string{"limit": strconv.Itoa(de.Limit)}
		f := FindingAt(At(de.Path), Error, CodeMaxDepth, "Value "+message(lang, CodeMaxDepth, params), params)
		return nil, nil, Findings{f}
	case err != nil:
		return nil, nil, Findings{parseErrorFinding(err, lang)}
	}
	return doc, fromEngineIssues(si, onDup, lang), nil
}

func parseErrorFinding(err error, lang string) Finding {
	params := map[string]string{"detail": err.Error()}
	return FindingAt(Root(), Error, CodeParseError, "Document "+message(lang, CodeParseError, params), params)
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

func fromEngineIssues(si []eng.SimpleIssue, sev Severity, lang string) Findings {
	var fs Findings
	for _, s := range si {
		params := map[string]string{"property": s.Key}
		fs = AppendFindings(fs, FindingAt(At(s.Path), sev, CodeDuplicateKey, "Value "+message(lang, CodeDuplicateKey, params), params))
	}
	return fs
}

func message(lang, code string, params map[string]string) string {
	if lang == "" {
		return i18n.T(code, params)
	}
	return i18n.Message(lang, code, params)
}
