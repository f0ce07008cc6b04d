package service

import "time"

// nowFunc 当前时间来源，测试中可替换
var nowFunc = time.Now
