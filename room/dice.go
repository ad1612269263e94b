package room

import "math/rand"

// Dice draws a box label. The server always rolls; clients never supply a face.
type Dice interface {
	Roll() Label
}

type randomDice struct{}

// NewRandomDice returns a uniform die over Labels. Safe for concurrent use.
func NewRandomDice() Dice {
	return randomDice{}
}

func (randomDice) Roll() Label {
	return Labels[rand.Intn(len(Labels))]
}
