package prompts

// NarrativeInstructions closes every narrative prompt. The inline example
// mirrors the response schema enforced on the structured-generation call.
const NarrativeInstructions = `Continue the story based on the player's last action.
Respond ONLY in JSON format following this schema:
{
  "storyText": "The narrative text for the current scene.",
  "choices": ["Choice 1", "Choice 2", "Choice 3"],
  "inventory": ["Updated", "Inventory", "List"],
  "currentQuest": "Updated quest description",
  "imageDescription": "A concise visual prompt for this specific scene, respecting the visual style.",
  "isGameOver": false
}`

// ImagePromptTemplate joins the session's visual style with a scene description.
const ImagePromptTemplate = "%s. Scene: %s"

// LorePreambleTemplate is the system instruction for the lore assistant.
// Arguments: quest, inventory, truncated story beat.
const LorePreambleTemplate = `You are the Game Master's familiar. You help the player understand the world, inventory, or story.
Current Game State:
Quest: %s
Inventory: %s
Last Story Beat: %s...

Respond helpfully but keep the immersion.`

// LoreStoryBeatLimit is how many characters of the current story text
// the lore assistant sees.
const LoreStoryBeatLimit = 200

// LoreFallbackMessage is shown in place of an assistant reply when the
// lore call fails.
const LoreFallbackMessage = "Forgive me, my connection to the ether is weak. Try asking again."
