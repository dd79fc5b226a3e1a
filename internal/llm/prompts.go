package llm

import (
	"fmt"
	"strings"
)

func SkillGapPrompt(resumeText, jdText string) string {
	return fmt.Sprintf(`You are an expert HR analyst and technical recruiter.

TASK: Compare the candidate's resume against the job description below.
1. Extract all technical and soft skills from the RESUME.
2. Extract all required skills from the JOB DESCRIPTION.
3. Find which JD skills the candidate has (matched) and which are missing.
4. match_percentage = matched / total_jd_skills * 100, rounded to 2 decimals.

RESUME:
"""
%s
"""

JOB DESCRIPTION:
"""
%s
"""

Return ONLY valid JSON in this exact format:
{"matched_skills": ["skill1"], "missing_skills": ["skill2"], "match_percentage": 65.0}`, resumeText, jdText)
}

func QuestionsPrompt(skill string, n int) string {
	return fmt.Sprintf(`You are an expert technical interviewer.

TASK: Generate EXACTLY %d multiple-choice interview questions for the skill: %q.

Rules:
- Each question has exactly 4 distinct options.
- correct_answer is one of the 4 options, copied exactly.
- Mix easy, medium and hard questions.
- Do not reveal the answer in the question text.
- explanation is one short line.

Return ONLY a JSON array:
[{"question": "...", "options": ["A", "B", "C", "D"], "correct_answer": "A", "explanation": "..."}]`, n, skill)
}

func RoadmapPrompt(missingSkills []string, weeks int) string {
	return fmt.Sprintf(`You are an expert career coach and learning strategist.

TASK: Create a %d-week learning roadmap for a candidate who needs these skills: %s

Requirements:
- Group related skills in the same or adjacent weeks, foundational first.
- Each week has a title, the skills to focus on, concrete study notes and real learning resources (official docs, well-known course sites).

Return ONLY a JSON array:
[{"week": 1, "title": "...", "skills": ["..."], "notes": "...", "resources": [{"skill": "...", "url": "https://..."}]}]`,
		weeks, strings.Join(missingSkills, ", "))
}

func ProjectsPrompt(missingSkills []string, n int) string {
	return fmt.Sprintf(`You are a senior engineer designing practice projects.

TASK: Propose EXACTLY %d small portfolio projects that together exercise these skills: %s

Each project has a short title, a difficulty of "beginner", "intermediate" or "advanced", a two sentence description and 3-6 concrete features to build.

Return ONLY a JSON array:
[{"title": "...", "difficulty": "beginner", "description": "...", "features": ["..."]}]`,
		n, strings.Join(missingSkills, ", "))
}

const CoachSystemPrompt = `You are an interview coach and career mentor.
- Run realistic mock interviews, technical and behavioral. Ask one question at a time.
- Give constructive feedback on each answer, rate it (Excellent / Good / Needs Improvement) and suggest a stronger answer when useful.
- Explain concepts simply with short code examples when relevant.
- Help with interview strategy such as the STAR method.
- Start at moderate difficulty and adapt to the candidate.
Keep replies concise. Be encouraging but honest.`
