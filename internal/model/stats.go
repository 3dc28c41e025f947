package model

type StatsOverview struct {
	OpenTopics  int `json:"openTopics"`
	Users       int `json:"users"`
	Submissions int `json:"submissions"`
}

type TopicRanking struct {
	TopicID         string `json:"topicId"`
	Title           string `json:"title"`
	SubmissionCount int    `json:"submissionCount"`
}
