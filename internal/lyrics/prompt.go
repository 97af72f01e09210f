package lyrics

import "fmt"

// Moods are the mood choices offered to clients.
var Moods = []string{
	"happy", "sad", "energetic", "calm", "romantic",
	"nostalgic", "uplifting", "melancholic", "dramatic", "peaceful",
}

// Genres are the genre choices offered to clients.
var Genres = []string{
	"pop", "rock", "hip-hop", "country", "jazz", "blues",
	"folk", "electronic", "classical", "indie", "r&b", "reggae",
}

const systemPrompt = "You are a professional songwriter."

// maxLyricsChars keeps lyrics short enough for the studio's prompt field.
const maxLyricsChars = 270

func buildPrompt(description, mood, genre, language string) string {
	return fmt.Sprintf(`Write a short and meaningful %s %s song in %s, based on this image description:
%q

Requirements:
- Family-friendly and emotional tone
- Use common, singable language
- Total length must be LESS than %d characters
- Format strictly as:
[Verse 1]
...

[Chorus]
...`, mood, genre, language, description, maxLyricsChars)
}
