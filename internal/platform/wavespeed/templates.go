package wavespeed

import "github.com/anthemlabs/anthem-api/internal/domain"

// Template prompts and anthem audio per subject category. The background
// description is shared across categories; the outfit varies.
const backdrop = " The background is an illustration of the Dubai skyline " +
	"with Burj Khalifa and buildings in beige tones, UAE flag on the left, " +
	"sand dunes, blue sky with clouds and a logo on the top right corner."

func imagePrompt(category domain.Category) string {
	switch category {
	case domain.CategoryMale:
		return "A real half-body image of the man wearing a crisp white " +
			"Emirati kandura with the red, green, white, and black National " +
			"Day sash scarf featuring gold embroidery draped over his " +
			"shoulders." + backdrop
	case domain.CategoryFemale:
		return "A real half-body image of the woman wearing a black abaya " +
			"with a UAE flag colors embellished panel and a beige hijab." + backdrop
	case domain.CategoryBoy:
		return "A real half-body image of the boy wearing an Emirati thobe " +
			"showing his hand." + backdrop
	case domain.CategoryGirl:
		return "A real half-body image of the girl wearing a UAE flag " +
			"colors dress." + backdrop
	default:
		return "A real half-body festive National Day portrait." + backdrop
	}
}

func videoPrompt(category domain.Category) string {
	switch category {
	case domain.CategoryMale:
		return "The man is singing."
	case domain.CategoryFemale:
		return "The woman is singing."
	case domain.CategoryBoy:
		return "The boy is singing."
	case domain.CategoryGirl:
		return "The girl is singing."
	default:
		return "The person is singing."
	}
}

// anthemAudioURL returns the hosted anthem recording matched to the
// category's voice register.
func anthemAudioURL(category domain.Category) string {
	switch category {
	case domain.CategoryBoy, domain.CategoryGirl:
		return "https://assets.anthemlabs.ae/audio/anthem-child.mp3"
	default:
		return "https://assets.anthemlabs.ae/audio/anthem-adult.mp3"
	}
}
