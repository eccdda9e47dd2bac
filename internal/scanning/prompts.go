package scanning

const sealContext = `The image is a crop of an engineering drawing around a professional engineer's seal or stamp.
Seal text is often curved around a circle, rotated, faint or partly covered by a signature.`

const textPrompt = sealContext + `

Transcribe every piece of text you can read, one line of text per output line.
Keep digits exactly as printed, including leading zeros.
Do not explain, summarize or add any commentary. Return only the transcribed text.`

const blockTextPrompt = sealContext + `

Read the image as a single block of text, top to bottom.
Keep digits exactly as printed, including leading zeros.
Return only the transcribed text, one line per output line.`

const linesPrompt = sealContext + `

List every line of text you can read. For each line give its text and its bounding box.
Return ONLY valid JSON in this exact format:
{
  "lines": [
    {"text": "JOHN A SMITH", "box_2d": [ymin, xmin, ymax, xmax]}
  ]
}

Rules:
1. box_2d values are integers from 0 to 1000, relative to the image height (y) and width (x).
2. List lines in reading order, top to bottom.
3. Keep digits exactly as printed, including leading zeros.
4. Return ONLY the JSON object, no additional text or explanation.`

// promptFor returns the transcription prompt for a segmentation mode
func promptFor(mode Mode) string {
	if mode == ModeBlock {
		return blockTextPrompt
	}
	return textPrompt
}
