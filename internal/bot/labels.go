package bot

import (
	"strings"
	"unicode"

	"github.com/raine/telegram-classifieds-bot/internal/listing"
)

// Recognized label texts after normalization. Both the Russian labels shown
// on the keyboards and their English equivalents are accepted.
var (
	labelsCreateAd = []string{"подать объявление", "create ad"}
	labelsViewAds  = []string{"смотреть объявления", "view ads"}
	labelsBuy      = []string{"куплю", "buy"}
	labelsSell     = []string{"продам", "sell"}
	labelsCancel   = []string{"отмена", "cancel"}
	labelsFinish   = []string{"завершить без фото", "finish without photo"}
)

// zeroWidthJoiner glues multi-codepoint emoji together.
const zeroWidthJoiner = '\u200d'

// normalizeLabel strips leading emoji decoration and surrounding whitespace,
// and lowercases the rest. Punctuation such as "@" or "#" is content.
func normalizeLabel(text string) string {
	text = strings.TrimLeftFunc(text, isLabelDecoration)
	return strings.ToLower(strings.TrimSpace(text))
}

func isLabelDecoration(r rune) bool {
	// ASCII symbols such as "+" start phone numbers, so only emoji count.
	return (r > unicode.MaxASCII && unicode.IsSymbol(r)) ||
		unicode.IsSpace(r) ||
		unicode.Is(unicode.Variation_Selector, r) ||
		r == zeroWidthJoiner
}

func matchesLabel(text string, labels []string) bool {
	normalized := normalizeLabel(text)
	for _, label := range labels {
		if normalized == label {
			return true
		}
	}
	return false
}

func isCreateAd(text string) bool { return matchesLabel(text, labelsCreateAd) }
func isViewAds(text string) bool  { return matchesLabel(text, labelsViewAds) }
func isCancel(text string) bool   { return matchesLabel(text, labelsCancel) }
func isFinish(text string) bool   { return matchesLabel(text, labelsFinish) }

// matchKind maps a type-choice label to a listing kind.
func matchKind(text string) (listing.Kind, bool) {
	switch {
	case matchesLabel(text, labelsBuy):
		return listing.KindBuy, true
	case matchesLabel(text, labelsSell):
		return listing.KindSell, true
	default:
		return 0, false
	}
}

// IsButtonLabel reports whether text is one of the bot's button labels.
// Gateways use it to tell button presses from free text.
func IsButtonLabel(text string) bool {
	for _, labels := range [][]string{labelsCreateAd, labelsViewAds, labelsBuy, labelsSell, labelsCancel, labelsFinish} {
		if matchesLabel(text, labels) {
			return true
		}
	}
	return false
}

func kindLabel(kind listing.Kind) string {
	if kind == listing.KindBuy {
		return kindLabelBuy
	}
	return kindLabelSell
}

func priceLabel(kind listing.Kind) string {
	if kind == listing.KindBuy {
		return priceLabelBuy
	}
	return priceLabelSell
}
