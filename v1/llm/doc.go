// Package llm is a thin layer over OpenAI-compatible text generation APIs.
//
// Messages are plain Role/Content pairs; AsUser, AsSystem and AsAssistant
// convert any fmt.Stringer, so search results and earlier responses can be
// fed back into a conversation directly.
//
// A Response is a tagged string: it prints as the generated text and carries
// the API fields as attributes.
//
//	p, err := llm.NewOpenAI(llm.NewConfig())
//	resp, err := p.Complete(ctx, []llm.Message{
//	    llm.SysMsg("Answer with a number from 1 to 10."),
//	    llm.UserMsg("How relevant is this document?"),
//	})
//	score, err := resp.ParseNumber(answer.WithRounding())
//	d, _ := resp.GenDuration()
//
// Chat models go through the chat completions endpoint. Model names that
// contain instruct, davinci, babbage, curie or ada use the legacy
// completions endpoint unless Config.ChatMode says otherwise.
package llm
