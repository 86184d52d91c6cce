package validation

import "regexp"

var suspiciousPatterns = []*regexp.Regexp{
	// XSS
	regexp.MustCompile(`(?i)<\s*/?\s*script`),
	regexp.MustCompile(`(?i)<\s*(iframe|object|embed|svg|img|link|meta|style|form|base)\b`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	regexp.MustCompile(`(?i)expression\s*\(`),
	regexp.MustCompile(`(?i)\beval\s*\(`),
	regexp.MustCompile(`(?i)\balert\s*\(`),
	regexp.MustCompile(`(?i)&#x?[0-9a-f]+;?`),
	regexp.MustCompile(`(?i)%3c|%3e|%00`),
	// протоколы
	regexp.MustCompile(`(?i)(javascript|vbscript|livescript)\s*:`),
	regexp.MustCompile(`(?i)data\s*:\s*text/html`),
	regexp.MustCompile(`(?i)file\s*:\s*//`),
	// SQL-инъекции
	regexp.MustCompile(`(?i)\bunion\b[\s\S]*\bselect\b`),
	regexp.MustCompile(`(?i)\bselect\b[\s\S]+\bfrom\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\b`),
	regexp.MustCompile(`(?i)\bdelete\s+from\b`),
	regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+(table|database)\b`),
	regexp.MustCompile(`(?i);\s*(drop|delete|update|insert|shutdown|exec)\b`),
	regexp.MustCompile(`(?i)['"]\s*(or|and)\s+['"]?\w+['"]?\s*=\s*['"]?\w+`),
	regexp.MustCompile(`(?i)\bxp_cmdshell\b`),
	regexp.MustCompile(`(?i)\bwaitfor\s+delay\b`),
	regexp.MustCompile(`(?i)\bsleep\s*\(\s*\d+\s*\)`),
	regexp.MustCompile(`'\s*--`),
	regexp.MustCompile(`/\*[\s\S]*\*/`),
}

// ContainsSuspiciousPattern сообщает, похожа ли строка на XSS, SQL-инъекцию
// или ссылку с опасным протоколом.
func ContainsSuspiciousPattern(s string) bool {
	if s == "" {
		return false
	}
	for _, re := range suspiciousPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
