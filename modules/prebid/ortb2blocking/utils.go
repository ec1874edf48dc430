package ortb2blocking

import (
	"github.com/prebid/openrtb/v20/adcom1"
)

func mergeStrings(messages []string, newMessages ...string) []string {
	for _, msg := range newMessages {
		if msg == "" {
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

func toInt(values []adcom1.CreativeAttribute) []int {
	ints := make([]int, len(values))
	for i := range values {
		ints[i] = int(values[i])
	}
	return ints
}

func toCreativeAttributes(values []int) []adcom1.CreativeAttribute {
	attrs := make([]adcom1.CreativeAttribute, len(values))
	for i := range values {
		attrs[i] = adcom1.CreativeAttribute(values[i])
	}
	return attrs
}
