// Package msgs defines the line protocol exchanged between the robot and
// its host.
//
// Every line starts with '$', carries a tag and comma separated fields,
// and ends with '*'. Anything after '*' is ignored. Lines travel over the
// link terminated by CR/LF.
//
// Host to robot:
//
//	$PCREF,<speed>,<yaw>*   speed and yaw in [-100, 100], no reply
//	$PCSTT,*                start moving, replies $MACK,1* or $MACK,0*
//	$PCSTP,*                stop, replies $MACK,1* or $MACK,0*
//	$RATE,<hz>*             accelerometer report rate, replies $OK* or $ERR,1*
//
// Robot to host:
//
//	$MDIST,<cm>*  $MBATT,<volts>*  $MACC,<x>,<y>,<z>*  $MEMRG,<0|1>*
//	$MACK,<0|1>*  $OK*  $ERR,<reason>*
package msgs
