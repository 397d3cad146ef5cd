package app

import (
	"fmt"
	"strings"
)

const tutorPersona = "You are a Tutor for a High-Education University."

func topicsTask(subject, chapter, filename string) groundedTask {
	return groundedTask{
		name: "topics",
		query: fmt.Sprintf("Generate a bulleted list of the main topics covered in the document:\n"+
			"Subject: %s\nChapter: %s\nFilename: %s", subject, chapter, filename),
		k: 5,
		prompt: func(contextBlock string) string {
			return contextBlock + "\nReturn a bulleted list of the main topics covered in this context."
		},
		maxTokens:   1000,
		temperature: 0.3,
	}
}

func summaryTask(subject, chapter, topic string) groundedTask {
	return groundedTask{
		name: "summary",
		query: fmt.Sprintf("Summarize the following topic:\nSubject: %s\nChapter: %s\nTopic: %s",
			subject, chapter, topic),
		k: 6,
		prompt: func(contextBlock string) string {
			return contextBlock + "\n" + tutorPersona + "\n" +
				"Provide a comprehensive Academic summary of the topic: " + topic + "\n" +
				"Be brief. Stay Professional. Use only the provided context, don't use any extra knowledge of your own.\n" +
				"Just mention the summary with no Intros, direct to the point."
		},
		maxTokens:   1000,
		temperature: 0.3,
	}
}

func elaborationTask(subject, chapter, topic string) groundedTask {
	return groundedTask{
		name: "elaboration",
		query: fmt.Sprintf("For the following:\nSubject: %s\nChapter: %s\nTopic: %s\nRetrieve the relative Information",
			subject, chapter, topic),
		k: 10,
		prompt: func(contextBlock string) string {
			return contextBlock + "\n" + tutorPersona + "\n" +
				"Your students are facing issues in understanding the following \"" + topic + "\" from the previous context.\n" +
				"Use your knowledge to explain and simplify the mentioned topics. Give examples and Elaborate."
		},
		maxTokens:   2000,
		temperature: 0.3,
	}
}

func outlineTask(subject, chapter string, topics []string, numSlides int) groundedTask {
	joined := strings.Join(topics, ", ")
	return groundedTask{
		name: "outline",
		query: fmt.Sprintf("Retrieve information for a presentation on:\nSubject: %s\nChapter: %s\nTopics: %s",
			subject, chapter, joined),
		k: 6,
		prompt: func(contextBlock string) string {
			var sb strings.Builder
			sb.WriteString(contextBlock)
			sb.WriteString("\nAs an AI assistant for teachers, create a detailed structure for a PowerPoint presentation on the following:\n")
			fmt.Fprintf(&sb, "Subject: %s\nChapter: %s\nTopics: %s\nNumber of slides: %d\n", subject, chapter, joined, numSlides)
			sb.WriteString("The slides can be of the following Types: Title&Text, Title&Picture, TitleOnly(For Intro, separator slides, assignments, conclusion and Thank you)\n")
			sb.WriteString("For Title&Text, return Title Name, and what will you discuss in the slides.\n")
			sb.WriteString("For Title&Picture, return Title Name, and a text prompt that can be fed for an AI tool to generate a matching picture.\n")
			sb.WriteString("For TitleOnly, return Title Name\n")
			sb.WriteString("Provide a presentation structure in this format\n")
			sb.WriteString("Slide Number, Slide Type, Returned Content(This will vary based on the Slide Type).\n")
			sb.WriteString("The flow of the presentation should mimic story telling style to keep students engaged.\n")
			sb.WriteString("To increase engagements, we need to have throughout the presentation discussion questions, Polls.\n")
			sb.WriteString("Limit discussion or polls to only two or three slides maximum.\n")
			sb.WriteString("Start with an Intro, end with a Conclusion to summarize then a \"Thank You\" slide.\n")
			fmt.Fprintf(&sb, "Ensure that the total number of slides matches the specified %d.\n", numSlides)
			sb.WriteString("Use mainly the provided context, you can use your own Knowledge but only in limited situations.\n")
			sb.WriteString("Give me the output I asked for in my format without any extra comment from you about it.")
			return sb.String()
		},
		maxTokens:   2500,
		temperature: 0.3,
	}
}

func bulletsPrompt(content string) string {
	return "Based on the following content, generate 3-4 concise bullet points that summarize the key ideas:\n\n" + content
}

func speakerNotesPrompt(content string) string {
	return "Generate detailed speaker notes for the following slide content:\n\n" + content
}

func conclusionPrompt(content string) string {
	return "Based on the following content from the presentation, generate a concise conclusion summary with 3-4 bullet points:\n\n" + content
}

func lectureSummaryPrompt(transcript string) string {
	return "Summarize the following lecture transcript:\n\n" + transcript
}

func flashcardsPrompt(transcript string) string {
	return "Create 5 flashcards with key statements from this lecture transcript. " +
		"Format each flashcard as 'Front: [content]' and 'Back: [content]' on separate lines:\n\n" + transcript
}

func assignmentsPrompt(transcript string) string {
	return "Extract any assignments or homework mentioned in this lecture transcript:\n\n" + transcript
}
