package validation

import "strings"

// ReviewInput is the raw review payload
type ReviewInput struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// Comment must be present
func Comment(comment string) (string, error) {
	if strings.TrimSpace(comment) == "" {
		return "", errorf("Incorrect or missing comment")
	}
	return comment, nil
}

// Rating must be within 1 to 5
func Rating(rating int) (int, error) {
	if rating == 0 {
		return 0, errorf("Incorrect or missing rating")
	}
	if rating < 1 || rating > 5 {
		return 0, errorf("Incorrect rating value (1 - 5)")
	}
	return rating, nil
}
