package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordTags(t *testing.T) {
	tags := KeywordTags("A towering battle robot exploring the ruined cities")
	assert.Equal(t, []string{"towering", "battle", "robot", "exploring", "ruined", "cities"}, tags)
}

func TestKeywordTagsDeduplicates(t *testing.T) {
	tags := KeywordTags("robot Robot ROBOT battle robot")
	assert.Equal(t, []string{"robot", "battle"}, tags)
}

func TestKeywordTagsPunctuationAndShortWords(t *testing.T) {
	tags := KeywordTags("3D art, for fun; by me. OK")
	assert.Equal(t, []string{"art", "fun"}, tags)
}

func TestKeywordTagsEmptyInput(t *testing.T) {
	assert.Equal(t, []string{}, KeywordTags(""))
	assert.Equal(t, []string{}, KeywordTags("a an the of"))
}
