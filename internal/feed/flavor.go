package feed

import "github.com/camy47/pokesocial/internal/core/domain"

const spriteBase = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/"

var Locations = []string{
	"Pallet Town", "Viridian City", "Pewter City", "Cerulean City",
	"Vermilion City", "Lavender Town", "Celadon City", "Saffron City",
}

// Cast are the comment authors on synthetic posts.
var Cast = []domain.Identity{
	{Username: "Ash_Ketchum", AvatarURL: spriteBase + "25.png"},
	{Username: "MistyWaterflower", AvatarURL: spriteBase + "120.png"},
	{Username: "BrockRock", AvatarURL: spriteBase + "95.png"},
	{Username: "GaryOak", AvatarURL: spriteBase + "133.png"},
	{Username: "ProfessorOak", AvatarURL: spriteBase + "143.png"},
	{Username: "TeamRocket", AvatarURL: spriteBase + "52.png"},
}

var CommentLines = []string{
	"Amazing catch! 🌟",
	"Wow, so rare! ✨",
	"I have been looking for this one! 😍",
	"Great find! 🎉",
	"Beautiful Pokemon! 💫",
	"Lucky you! 🍀",
	"Perfect catch! 🎯",
	"This is awesome! 🔥",
}
