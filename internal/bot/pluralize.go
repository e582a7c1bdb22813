package bot

import "fmt"

// pluralize picks the Russian plural form for count: one ("1 фотографию"),
// few ("2 фотографии") or many ("5 фотографий").
func pluralize(one, few, many string, count int) string {
	var s string
	n := count % 100
	switch {
	case n >= 11 && n <= 14:
		s = many
	case n%10 == 1:
		s = one
	case n%10 >= 2 && n%10 <= 4:
		s = few
	default:
		s = many
	}
	return fmt.Sprintf("%d %s", count, s)
}

func pluralizePhotos(count int) string {
	return pluralize("фотографию", "фотографии", "фотографий", count)
}
