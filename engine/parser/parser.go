// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strconv"
	"strings"

	"github.com/JasFreaq/RPG-Project-sub000/types"
)

var verbAliases = map[string]string{
	// Talk
	"ask":      "talk",
	"speak":    "talk",
	"chat":     "talk",
	"converse": "talk",
	"greet":    "talk",
	"hail":     "talk",

	// Advance
	"n":        "next",
	"continue": "next",
	"c":        "next",
	"more":     "next",

	// Choose
	"pick":   "choose",
	"select": "choose",
	"reply":  "choose",
	"answer": "choose",
	"say":    "choose",

	// Leave
	"leave":    "bye",
	"goodbye":  "bye",
	"farewell": "bye",
	"end":      "bye",
	"exit":     "bye",

	// Miscellaneous
	"l":       "look",
	"who":     "look",
	"inv":     "inventory",
	"i":       "inventory",
	"items":   "inventory",
	"q":       "quests",
	"quest":   "quests",
	"journal": "quests",
	"log":     "quests",
	"?":       "help",
	"h":       "help",
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Bare number: "2" -> choose 2. A leading "#" or trailing "." is tolerated.
	if len(words) == 1 {
		if n, ok := choiceNumber(words[0]); ok {
			return types.Intent{Verb: "choose", Object: n}
		}
	}

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)
	if len(words) == 0 {
		return types.Intent{}
	}

	// Apply verb aliases.
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])

	object := strings.Join(rest, " ")
	if verb == "choose" {
		if n, ok := choiceNumber(object); ok {
			object = n
		}
	}

	return types.Intent{Verb: verb, Object: object}
}

// expandMultiWordVerbs handles "talk to", "good bye", "look around" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "talk", "speak", "chat":
		if words[1] == "to" || words[1] == "with" {
			return append([]string{"talk"}, words[2:]...)
		}
	case "good":
		if words[1] == "bye" || words[1] == "night" {
			return append([]string{"bye"}, words[2:]...)
		}
	case "look":
		if words[1] == "around" {
			return append([]string{"look"}, words[2:]...)
		}
	case "walk", "step":
		if words[1] == "away" {
			return append([]string{"bye"}, words[2:]...)
		}
	case "choose", "pick", "select":
		if words[1] == "option" || words[1] == "choice" || words[1] == "number" {
			return append([]string{"choose"}, words[2:]...)
		}
	}

	return words
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// choiceNumber normalizes "3", "#3" and "3." to "3".
func choiceNumber(s string) (string, bool) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "#"), ".")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return "", false
	}
	return strconv.Itoa(n), true
}
