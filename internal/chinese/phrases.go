package chinese

// phraseReadings pins the reading of words whose characters are polyphonic
// and whose per-character default is wrong in context. Tone 5 is neutral.
var phraseReadings = map[string][]string{
	"银行": {"yin2", "hang2"}, "行业": {"hang2", "ye4"}, "行长": {"hang2", "zhang3"},
	"音乐": {"yin1", "yue4"}, "乐器": {"yue4", "qi4"}, "乐队": {"yue4", "dui4"},
	"长大": {"zhang3", "da4"}, "成长": {"cheng2", "zhang3"}, "校长": {"xiao4", "zhang3"},
	"班长": {"ban1", "zhang3"}, "部长": {"bu4", "zhang3"}, "生长": {"sheng1", "zhang3"},
	"重要": {"zhong4", "yao4"}, "重新": {"chong2", "xin1"}, "重复": {"chong2", "fu4"},
	"睡觉": {"shui4", "jiao4"}, "觉得": {"jue2", "de5"}, "感觉": {"gan3", "jue2"},
	"还是": {"hai2", "shi4"}, "还有": {"hai2", "you3"}, "还给": {"huan2", "gei3"},
	"了解": {"liao3", "jie3"}, "为了": {"wei4", "le5"}, "因为": {"yin1", "wei4"},
	"地方": {"di4", "fang5"}, "的确": {"di2", "que4"}, "目的": {"mu4", "di4"},
	"得到": {"de2", "dao4"}, "不得不": {"bu4", "de2", "bu4"}, "首都": {"shou3", "du1"},
	"便宜": {"pian2", "yi5"}, "方便": {"fang1", "bian4"}, "调查": {"diao4", "cha2"},
	"空调": {"kong1", "tiao2"}, "朝阳": {"zhao1", "yang2"}, "朝代": {"chao2", "dai4"},
	"应该": {"ying1", "gai1"}, "相信": {"xiang1", "xin4"}, "大夫": {"dai4", "fu5"},
	"好奇": {"hao4", "qi2"}, "爱好": {"ai4", "hao4"}, "东西": {"dong1", "xi5"},
	"什么": {"shen2", "me5"}, "怎么": {"zen3", "me5"}, "朋友": {"peng2", "you5"},
	"知道": {"zhi1", "dao5"}, "衣服": {"yi1", "fu5"}, "头发": {"tou2", "fa5"},
	"发现": {"fa1", "xian4"}, "差不多": {"cha4", "bu5", "duo1"}, "出差": {"chu1", "chai1"},
	"会计": {"kuai4", "ji4"}, "处理": {"chu3", "li3"}, "到处": {"dao4", "chu4"},
	"教育": {"jiao4", "yu4"}, "种子": {"zhong3", "zi5"}, "种植": {"zhong4", "zhi2"},
	"干净": {"gan1", "jing4"}, "干活": {"gan4", "huo2"}, "数学": {"shu4", "xue2"},
	"数据": {"shu4", "ju4"}, "背包": {"bei1", "bao1"}, "中奖": {"zhong4", "jiang3"},
}

// maxPhraseRunes is the length of the longest key in phraseReadings.
const maxPhraseRunes = 3

// matchPhrase returns the longest phrase at the start of run and its
// readings.
func matchPhrase(run []rune) (int, []string) {
	for n := min(maxPhraseRunes, len(run)); n >= 2; n-- {
		if readings, ok := phraseReadings[string(run[:n])]; ok {
			return n, readings
		}
	}

	return 0, nil
}
