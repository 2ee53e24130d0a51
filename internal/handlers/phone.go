package handlers

import "strings"

// normalizePhone strips spacing and rewrites a Nigerian local prefix to the
// international form, so the same customer is found regardless of how the
// number was typed.
func normalizePhone(raw string) string {
	phone := strings.TrimSpace(raw)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")

	if strings.HasPrefix(phone, "0") && len(phone) == 11 {
		return "+234" + phone[1:]
	}
	if strings.HasPrefix(phone, "234") {
		return "+" + phone
	}
	return phone
}
