package service

// Services bundles the application services for injection into the API
// layer.
type Services struct {
	Tags      *TagService
	Questions *QuestionService
	Answers   *AnswerService
	Votes     *VoteService
	Users     *UserService
}
